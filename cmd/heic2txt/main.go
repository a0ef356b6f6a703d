package main

import (
	"os"

	"github.com/MeKo-Tech/heic2txt/cmd/heic2txt/cmd"
	_ "github.com/MeKo-Tech/heic2txt/internal/engine/tesseract"
)

func main() {
	os.Exit(cmd.Execute())
}
