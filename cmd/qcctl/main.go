// Command qcctl runs administrative tasks against the QC portal store.
package main

import (
	"os"

	"qcportal/internal/qc/util"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		util.GetLogger().Error("command failed", "error", err)
		os.Exit(1)
	}
}
