package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/fileuploader/uploadwatch/internal/version"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "uploadwatch",
		Short:        "Upload CSV batches and watch them being processed",
		Version:      version.Detailed(),
		SilenceUsage: true,
	}

	flags := cmd.PersistentFlags()
	flags.SortFlags = false
	flags.StringP("server", "s", defaultServerURL, "Upload server url")
	flags.String("log-file", defaultLogFile, "Log file, empty to disable")
	flags.Int("max-items", defaultMaxItems, "Max files tracked per batch, 0 for no limit")
	flags.Duration("timeout", defaultRequestTimeout, "HTTP request timeout")
	flags.Bool("plain", false, "Print progress lines instead of the interactive view")
	flags.BoolP("verbose", "v", false, "Log at debug level")

	cmd.AddCommand(
		newUploadCmd(),
		newWatchCmd(),
		newStudentsCmd(),
		newVersionCmd(),
	)
	return cmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
