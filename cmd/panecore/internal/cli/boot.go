package cli

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tabworks/panecore/boot"
	"github.com/tabworks/panecore/bootconfig"
	"github.com/tabworks/panecore/id"
	"github.com/tabworks/panecore/surface"
	"github.com/tabworks/panecore/view"
	"github.com/tabworks/panecore/workspace"
)

var workspaceID string

var bootCmd = &cobra.Command{
	Use:   "boot",
	Short: "Run BootSequencer and keep the core alive",
	RunE:  runBoot,
}

func init() {
	bootCmd.Flags().StringVarP(&workspaceID, "workspace", "w", "default", "workspace id to load")
}

func runBoot(cmd *cobra.Command, args []string) error {
	cfg, err := bootconfig.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	seq := boot.New(
		id.NewAllocator(), cfg, workspaceID,
		stubViewFactory, stubSurfaceFactory, stubSurfaceConfig,
		boot.Hooks{}, func() int64 { return time.Now().Unix() },
	)

	res, err := seq.Run(cmd.Context())
	if err != nil {
		return fmt.Errorf("boot sequence: %w", err)
	}
	defer res.Shutdown()

	log.Printf("panecore: boot complete for workspace %q, %d tab(s) restored", workspaceID, len(res.Store.Tabs()))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	log.Printf("panecore: shutting down")
	return nil
}

// stubViewFactory, stubSurfaceFactory, and stubSurfaceConfig stand in for
// the terminal rendering engine and PTY backend — both out of scope for
// this core (spec.md §2) — so the boot subcommand can exercise the full
// sequencer without an embedding UI shell.
func stubViewFactory(content workspace.Content, paneID id.ID) (view.PaneView, error) {
	kind := view.KindUnsupported
	switch content.Kind {
	case workspace.ContentTerminal:
		kind = view.KindTerminal
	case workspace.ContentWebview:
		kind = view.KindWebview
	case workspace.ContentCodeViewer:
		kind = view.KindCodeViewer
	case workspace.ContentBridgePanel:
		kind = view.KindBridgePanel
	}
	return view.PaneView{PaneID: paneID, Kind: kind, Handle: "headless"}, nil
}

func stubSurfaceFactory(cfg surface.Config, meta surface.Metadata) (any, error) {
	return "headless-surface", nil
}

func stubSurfaceConfig(p *workspace.Pane) surface.Config {
	return surface.Config{"cwd": p.Metadata.CWD}
}
