package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/petlife-licenser/pkg/config"
	"github.com/angelmondragon/petlife-licenser/pkg/licenseclient"
	"github.com/angelmondragon/petlife-licenser/pkg/logger"
)

const usage = `usage: licensectl [flags] <command> [key]

commands:
  machine-id        print the hashed machine fingerprint
  check             run the startup check against the cached license
  activate <key>    validate key and cache it on success
  status [key]      show the server-side status of key (defaults to the cached key)
  offline           use the cached license without contacting the server
  deactivate [key]  release this machine from key and clear the cache
  clear             delete the cached license
`

func main() {
	_ = godotenv.Load()

	flags := flag.NewFlagSet("licensectl", flag.ExitOnError)
	flags.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flags.PrintDefaults()
	}
	server := flags.String("server", "", "license server url (overrides LICENSER_SERVER_URL)")
	storePath := flags.String("store", "", "local license store path (overrides LICENSER_CLIENT_STORE)")
	_ = flags.Parse(os.Args[1:])

	if flags.NArg() == 0 {
		flags.Usage()
		os.Exit(2)
	}

	cfg, err := config.LoadClient()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if *server != "" {
		cfg.ServerURL = *server
	}
	if *storePath != "" {
		cfg.StorePath = *storePath
	}

	logg := logger.New(logger.Options{
		ServiceName: "licensectl",
		Level:       logger.ParseLevel(cfg.LogLevel),
		Output:      os.Stderr,
	})

	mgr, err := newManager(cfg, logg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init: %v\n", err)
		os.Exit(1)
	}

	code := run(context.Background(), mgr, os.Stdout, flags.Arg(0), flags.Args()[1:])
	os.Exit(code)
}

func newManager(cfg *config.ClientConfig, logg *logger.Logger) (*licenseclient.Manager, error) {
	store, err := licenseclient.NewFileStore(cfg.StorePath)
	if err != nil {
		return nil, err
	}
	client, err := licenseclient.NewClient(licenseclient.ClientOptions{BaseURL: cfg.ServerURL})
	if err != nil {
		return nil, err
	}
	return licenseclient.NewManager(licenseclient.ManagerOptions{
		Store:      store,
		API:        client,
		AppID:      cfg.AppID,
		AppVersion: cfg.AppVersion,
		Logger:     logg,
	})
}

func run(ctx context.Context, mgr *licenseclient.Manager, out io.Writer, command string, args []string) int {
	switch command {
	case "machine-id":
		hash, err := mgr.HashedMachineID()
		if err != nil {
			return fail(err)
		}
		fmt.Fprintln(out, hash)
		return 0

	case "check":
		res, err := mgr.CheckOnStartup(ctx)
		if err != nil {
			return fail(err)
		}
		printJSON(out, res)
		if !res.Valid() {
			return 3
		}
		return 0

	case "activate":
		if len(args) == 0 {
			return fail(fmt.Errorf("activate requires a license key"))
		}
		resp, err := mgr.ValidateLicense(ctx, args[0])
		if err != nil {
			return fail(err)
		}
		printJSON(out, resp)
		return 0

	case "status":
		key, err := keyArg(mgr, args)
		if err != nil {
			return fail(err)
		}
		resp, err := mgr.CheckLicenseStatus(ctx, key)
		if err != nil {
			return fail(err)
		}
		printJSON(out, resp)
		return 0

	case "offline":
		res, err := mgr.UseOfflineMode()
		if err != nil {
			return fail(err)
		}
		printJSON(out, res)
		return 0

	case "deactivate":
		key, err := keyArg(mgr, args)
		if err != nil {
			return fail(err)
		}
		resp, err := mgr.DeactivateMachine(ctx, key)
		if err != nil {
			return fail(err)
		}
		printJSON(out, resp)
		return 0

	case "clear":
		if err := mgr.ClearLicense(); err != nil {
			return fail(err)
		}
		fmt.Fprintln(out, "cached license removed")
		return 0

	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", command, usage)
		return 2
	}
}

func keyArg(mgr *licenseclient.Manager, args []string) (string, error) {
	if len(args) > 0 && strings.TrimSpace(args[0]) != "" {
		return args[0], nil
	}
	cached, err := mgr.StoredLicense()
	if err != nil {
		return "", err
	}
	if cached == nil {
		return "", licenseclient.ErrNoCachedLicense
	}
	return cached.Key, nil
}

func fail(err error) int {
	fmt.Fprintln(os.Stderr, licenseclient.Message(err))
	return 1
}

func printJSON(out io.Writer, v any) {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
