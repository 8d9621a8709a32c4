// Copyright (c) 2026 Axon Robotics
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"flag"
	"log"

	"github.com/axon-robotics/axon_runtime/internal/app"
)

func main() {
	envPath := flag.String("env", ".env", "path to the dotenv file (missing file is fine)")
	flag.Parse()

	log.Println("starting axon runtime")
	if err := app.RunRuntime(*envPath); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
