package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/GriffinCanCode/AgentOS/scriptenc/internal/injector"
	"github.com/GriffinCanCode/AgentOS/scriptenc/internal/sandbox"
	"github.com/GriffinCanCode/AgentOS/scriptenc/internal/script"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	verifyHTML    string
	verifyModules map[string]string
)

func init() {
	rootCmd.AddCommand(verifyCmd)
	verifyCmd.Flags().StringVar(&verifyHTML, "html", "", "HTML file to load as the host page")
	verifyCmd.Flags().StringToStringVar(&verifyModules, "module", nil, "Serve url=file for a required module (repeatable)")
}

var verifyCmd = &cobra.Command{
	Use:   "verify <glob>...",
	Short: "Run scripts in an emulated host page",
	Long:  "Encodes each script and delivers it to its own emulated page, then fires DOMContentLoaded and load.\nPrints what the script logged. Exits non-zero when the page rejects a payload.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runVerify,
}

func runVerify(cmd *cobra.Command, args []string) error {
	scripts, err := loadScripts(args)
	if err != nil {
		return err
	}

	var markup string
	if verifyHTML != "" {
		data, err := os.ReadFile(verifyHTML)
		if err != nil {
			return fmt.Errorf("read html: %w", err)
		}
		markup = string(data)
	}

	pageConfig := env.cfg.Sandbox.RuntimeConfig()
	pageConfig.Modules = make(map[string]string, len(verifyModules))
	for url, path := range verifyModules {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read module %s: %w", url, err)
		}
		pageConfig.Modules[url] = string(data)
	}

	pool, err := sandbox.NewPool(pageConfig, env.cfg.Sandbox.PoolSize)
	if err != nil {
		return fmt.Errorf("create sandbox pool: %w", err)
	}
	defer pool.Close()

	inj := injector.New(
		injector.WithEncoder(newEncoder()),
		injector.WithLogger(env.logger),
		injector.WithMetrics(env.metrics),
	)

	rejected := 0
	for _, s := range scripts {
		err := verifyScript(cmd.Context(), cmd.OutOrStdout(), pool, inj, markup, s)
		switch {
		case errors.Is(err, injector.ErrHostRejected):
			rejected++
		case err != nil:
			return err
		}
	}

	if rejected > 0 {
		return fmt.Errorf("%d of %d scripts rejected by the host page", rejected, len(scripts))
	}
	return nil
}

// verifyScript runs s on a fresh page and prints what it observed
func verifyScript(ctx context.Context, out io.Writer, pool *sandbox.Pool, inj *injector.Injector, markup string, s *script.Script) error {
	dom := sandbox.NewDOM()
	if markup != "" {
		parsed, err := sandbox.NewDOMFromHTML(markup)
		if err != nil {
			return err
		}
		dom = parsed
	}

	page, err := pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer pool.Release(page)

	if err := page.Load(dom); err != nil {
		return err
	}

	fmt.Fprintf(out, "== %s\n", s.Label())
	report, injectErr := inj.Inject(ctx, page, s)
	if injectErr == nil {
		if err := page.Finish(ctx); err != nil {
			env.logger.ForScript(s.Label()).Warn("page lifecycle interrupted", zap.Error(err))
			fmt.Fprintf(out, "interrupted: %v\n", err)
		}
	}

	result := page.Result()
	for _, entry := range result.Console {
		fmt.Fprintf(out, "[%s] %s\n", entry.Level, entry.Message)
	}
	for _, msg := range result.Errors {
		fmt.Fprintf(out, "uncaught: %s\n", msg)
	}
	for _, msg := range result.Rejections {
		fmt.Fprintf(out, "unhandled rejection: %s\n", msg)
	}
	if len(result.DOMChanges) > 0 {
		fmt.Fprintf(out, "dom changes: %d\n", len(result.DOMChanges))
	}

	if injectErr != nil {
		fmt.Fprintf(out, "rejected: %v\n", injectErr)
		return injectErr
	}
	fmt.Fprintf(out, "ok (%d bytes, injection %s)\n", report.Outcomes[0].Bytes, report.ID)
	return nil
}
