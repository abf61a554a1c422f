package main

import (
	"flag"
	"log"

	"github.com/danmuck/modelwire/internal/config"
)

const defaultPath = "worker.toml"

func main() {
	output := flag.String("output", defaultPath, "output path for config template")
	validate := flag.Bool("validate", false, "validate an existing config file")
	input := flag.String("input", defaultPath, "config path for validation")
	force := flag.Bool("force", false, "overwrite existing config file")
	flag.Parse()

	if *validate {
		cfg, err := config.LoadWorkerConfig(*input)
		if err != nil {
			log.Fatal(err)
		}
		log.Printf("Validated worker config %q at %s", cfg.Name, *input)
		return
	}

	if err := config.WriteTemplate(*output, *force); err != nil {
		log.Fatal(err)
	}
	log.Printf("Wrote worker config template to %s", *output)
}
