package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	securexchat "github.com/securexchat/client-go"
	"github.com/securexchat/client-go/internal/config"
	"github.com/securexchat/client-go/internal/logging"
	"github.com/securexchat/client-go/localstore"
)

// DefaultPassphraseEnv names the environment variable holding the key file
// passphrase unless --passphrase-env says otherwise.
const DefaultPassphraseEnv = "SECUREXCHAT_PASSPHRASE"

type app struct {
	configPath    string
	verbose       bool
	debug         bool
	passphraseEnv string

	out    io.Writer
	errOut io.Writer
	log    logging.Logger
	// spin enables the progress spinner; off when output is not a terminal.
	spin bool
}

// Execute runs the CLI against the process arguments.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCommand(os.Stdout, os.Stderr)
	root.SetArgs(os.Args[1:])
	err := root.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("Error:"), err)
	}
	return err
}

func newRootCommand(out, errOut io.Writer) *cobra.Command {
	a := &app{out: out, errOut: errOut}
	if f, ok := out.(*os.File); ok && f == os.Stdout {
		a.spin = !color.NoColor
	}

	root := &cobra.Command{
		Use:           "securexchat",
		Short:         "End-to-end encrypted one-to-one chat",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.log = logging.Logger{Verbose: a.verbose, Debug: a.debug, Out: errOut, Err: errOut}
			if a.configPath == "" {
				path, err := config.DefaultProfilePath()
				if err != nil {
					return err
				}
				a.configPath = path
			}
			a.log.Debugf("profile: %s", a.configPath)
			return nil
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "profile path (default $XDG_CONFIG_HOME/securexchat/profile.toml)")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "print progress details")
	pf.BoolVar(&a.debug, "debug", false, "print debug output")
	pf.StringVar(&a.passphraseEnv, "passphrase-env", DefaultPassphraseEnv, "environment variable holding the key file passphrase")

	root.AddCommand(
		initCmd(a),
		provisionCmd(a),
		whoamiCmd(a),
		sendCmd(a),
		readCmd(a),
		exportKeyCmd(a),
		importKeyCmd(a),
		rotateCmd(a),
		conversationIDCmd(),
	)
	return root
}

func (a *app) profile() (*config.Profile, error) {
	p, err := config.LoadProfile(a.configPath)
	if err != nil {
		return nil, fmt.Errorf("%w (run `securexchat init` first)", err)
	}
	return p, nil
}

// client builds an SDK client from the profile. The local key directory is
// sealed when the passphrase variable is set.
func (a *app) client(extra ...securexchat.Option) (*securexchat.Client, *config.Profile, error) {
	p, err := a.profile()
	if err != nil {
		return nil, nil, err
	}

	var storeOpts []localstore.FileOption
	if pass := os.Getenv(a.passphraseEnv); pass != "" {
		storeOpts = append(storeOpts, localstore.WithPassphrase(pass))
	}
	store, err := localstore.NewFile(p.KeyDir, storeOpts...)
	if err != nil {
		return nil, nil, err
	}

	mode, err := securexchat.ParseVerifyMode(p.Verify)
	if err != nil {
		return nil, nil, err
	}

	opts := []securexchat.Option{
		securexchat.WithBaseURL(p.ServerURL),
		securexchat.WithAPIKey(p.APIKey),
		securexchat.WithDirectoryKey(p.DirectoryKey),
		securexchat.WithVerification(mode),
		securexchat.WithLocalStore(store),
		securexchat.WithLogger(a.log),
		securexchat.WithPlaceholder("[unreadable]"),
	}
	c, err := securexchat.New(p.AccountID, append(opts, extra...)...)
	if err != nil {
		return nil, nil, err
	}
	return c, p, nil
}

// startSpinner shows message on a spinner unless verbose output or a
// non-terminal writer makes it noise. The returned func stops it.
func (a *app) startSpinner(message string) (*spinner.Spinner, func()) {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(a.errOut))
	s.Suffix = " " + message
	if err := s.Color("cyan"); err != nil {
		a.log.Debugf("spinner color: %v", err)
	}

	if !a.spin || a.verbose || a.debug {
		a.log.Infof("%s", message)
		return s, func() {
			if s.FinalMSG != "" {
				fmt.Fprint(a.errOut, ensureNewline(s.FinalMSG))
			}
		}
	}

	s.Start()
	return s, func() {
		s.FinalMSG = ensureNewline(s.FinalMSG)
		s.Stop()
	}
}

func ensureNewline(s string) string {
	if s != "" && !strings.HasSuffix(s, "\n") {
		return s + "\n"
	}
	return s
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
