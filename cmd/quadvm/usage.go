package main

import (
	"fmt"
	"os"
)

func printUsage() {
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  quadvm [flags] run [image.yml|quadvm.yml|dir]")
	fmt.Fprintln(os.Stderr, "  quadvm [flags] <image.yml>")
	fmt.Fprintln(os.Stderr, "  quadvm check [image.yml|quadvm.yml|dir]")
	fmt.Fprintln(os.Stderr, "  quadvm dump [image.yml|quadvm.yml|dir]")
	fmt.Fprintln(os.Stderr, "  quadvm version")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Flags:")
	fmt.Fprintln(os.Stderr, "  --trace                log every executed instruction")
	fmt.Fprintln(os.Stderr, "  --log-level=<level>    trace|debug|info|warn|error")
	fmt.Fprintln(os.Stderr, "  --max-steps=<n>        abort after n instructions (0 = unlimited)")
	fmt.Fprintln(os.Stderr, "  --max-call-depth=<n>   abort past n nested calls (0 = unlimited)")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Environment:")
	fmt.Fprintln(os.Stderr, "  QUADVM_HOME            cache directory for git program sources")
}
