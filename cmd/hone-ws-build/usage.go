package main

import (
	"flag"
	"fmt"
	"text/tabwriter"

	"github.com/kolide/kit/version"
)

const layoutHelp = `The command builds the Hone (Host-Network) Packet-Process Correlator
Wireshark Live-Capture Shim.  It creates the build directories as follows:
+-----------------+--------------------------------------+
| hone_ws_n.n.n   | Build root                           |
|   build_files   |   Files created by the build process |
|   debug_symbols |   PDB files for executables          |
|   installers    |   Installers                         |
|   temp          |   Temporary files                    |
|     build       |     Temporary build files            |
|     installer   |     Temporary installer files        |
+-----------------+--------------------------------------+
You can delete the temp directory after the command finishes.
`

func usageFor(fs *flag.FlagSet, short string) func() {
	return func() {
		out := fs.Output()
		fmt.Fprintf(out, "USAGE\n")
		fmt.Fprintf(out, "  %s\n", short)
		fmt.Fprintf(out, "\n")
		fmt.Fprintf(out, "FLAGS\n")
		w := tabwriter.NewWriter(out, 0, 2, 2, ' ', 0)
		fs.VisitAll(func(f *flag.Flag) {
			fmt.Fprintf(w, "\t-%s %s\t%s\n", f.Name, f.DefValue, f.Usage)
		})
		w.Flush()
		fmt.Fprintf(out, "\n")
		fmt.Fprint(out, layoutHelp)
		fmt.Fprintf(out, "\n")
		fmt.Fprintf(out, "VERSION\n")
		fmt.Fprintf(out, "  %s\n", version.Version().Version)
	}
}
