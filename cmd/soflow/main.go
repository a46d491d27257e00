package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/soflow/soflow/cmd"
)

func main() {
	// Local development reads config from a .env file; in deployment the
	// environment is set directly and the file is absent.
	_ = godotenv.Load()

	rootCmd := cmd.NewRootCommand(os.Stdin, os.Stdout, os.Stderr)
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
