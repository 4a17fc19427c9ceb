package main

import (
	"hl7tools/cmd/hl7tools/commands"
	"hl7tools/lib/osutil"
)

func main() {
	ctx, stop := osutil.SignalContext()
	defer stop()
	commands.ExecuteContext(ctx)
}
