// Command glitchdelay renders, plays and inspects the glitch delay.
//
// Usage:
//
//	glitchdelay render [flags]   offline render to raw s16le with seam report
//	glitchdelay play [flags]     live playback with a terminal front panel
//	glitchdelay info [flags]     print configuration and a state snapshot
//
// Examples:
//
//	glitchdelay render -tone 220 -seconds 8 -bpm 120 -out out.raw
//	glitchdelay render -in song.mp3 -loop 0.2 -speed 2 -bits 8 -out out.raw
//	glitchdelay play -in song.mp3
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "render":
		err = runRender(args)
	case "play":
		err = runPlay(args)
	case "info":
		err = runInfo(args)
	case "-h", "-help", "--help", "help":
		usage()
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", cmd)
		usage()
		os.Exit(2)
	}

	if err != nil {
		if err == flag.ErrHelp {
			return
		}
		log.Fatalf("%s: %v", os.Args[1], err)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: glitchdelay <render|play|info> [flags]\n\n")
	fmt.Fprintf(os.Stderr, "Run 'glitchdelay <command> -h' for command flags.\n")
}
