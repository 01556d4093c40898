// Launches a local solana-test-validator funding a keypair usable by the integration tests
package main

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/RogueTeam/volley/keys"
)

const validator = "solana-test-validator"

var config struct {
	ledgerDir string
	keypair   string
	rpcPort   string
	reset     bool
}

func init() {
	flagset := flag.NewFlagSet("validator", flag.ExitOnError)
	flagset.StringVar(&config.ledgerDir, "ledger", "./test-ledger", "Directory for the validator ledger")
	flagset.StringVar(&config.keypair, "keypair", "./test-ledger-id.json", "Keypair funded at genesis. Created when missing")
	flagset.StringVar(&config.rpcPort, "rpc-port", "8899", "Port for the json-rpc api")
	flagset.BoolVar(&config.reset, "reset", false, "Reset the ledger to genesis")

	err := flagset.Parse(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}
}

// Loads the keypair, creating it the first time
func prepareKeypair(path string) (address string, err error) {
	var provider keys.Filesystem
	path = provider.Path(path)

	key, err := provider.Resolve(path)
	if err == nil {
		return key.PublicKey().String(), nil
	}
	if !errors.Is(err, keys.ErrKeyNotFound) {
		return "", err
	}

	key, err = keys.Generate(path)
	if err != nil {
		return "", err
	}
	fmt.Println("Generated keypair:", path)
	return key.PublicKey().String(), nil
}

func main() {
	address, err := prepareKeypair(config.keypair)
	if err != nil {
		log.Fatalf("Error preparing keypair: %v", err)
	}

	err = os.MkdirAll(config.ledgerDir, 0755)
	if err != nil && !errors.Is(err, fs.ErrExist) {
		log.Fatalf("Error creating ledger directory %s: %v", config.ledgerDir, err)
	}

	args := []string{
		"--ledger", config.ledgerDir,
		"--rpc-port", config.rpcPort,
		"--mint", address,
		"--quiet",
	}
	if config.reset {
		args = append(args, "--reset")
	}

	cmd := exec.Command(validator, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	err = cmd.Start()
	if err != nil {
		log.Fatalf("Error starting %s: %v", validator, err)
	}
	defer func() {
		fmt.Printf("Stopping %s (PID: %d)...\n", validator, cmd.Process.Pid)
		err := cmd.Process.Signal(os.Interrupt)
		if err != nil {
			log.Printf("Error stopping validator: %v", err)
		}
		_ = cmd.Wait()
	}()

	var provider keys.Filesystem
	keypair, _ := filepath.Abs(provider.Path(config.keypair))
	fmt.Printf("%s started (PID: %d). Integration tests can use:\n", validator, cmd.Process.Pid)
	fmt.Printf("\texport VOLLEY_RPC_URL=http://127.0.0.1:%s\n", config.rpcPort)
	fmt.Printf("\texport VOLLEY_KEYPAIR=%s\n", keypair)
	fmt.Println("Press Ctrl+C to stop the process.")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	fmt.Println("\nReceived termination signal. Shutting down...")
}
