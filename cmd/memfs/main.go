package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"memfs/internal/config"
	"memfs/internal/core"
	"memfs/internal/fs"
	"memfs/internal/logging"

	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"
	"golang.org/x/sys/unix"
)

const version = "1.0.0"

var logger = logging.GetLogger()

func usage() {
	fmt.Fprintf(os.Stderr,
		"usage: %s <mountpoint> [options]\n\n"+
			"options:\n%s", filepath.Base(os.Args[0]), pflag.CommandLine.FlagUsages())
}

func main() {
	showHelp := pflag.BoolP("help", "h", false, "Print help")
	showVersion := pflag.BoolP("version", "V", false, "Print version")
	verbose := pflag.Bool("verbose", false, "Enable verbose logging")
	hashCheck := pflag.BoolP("hash-check", "k", false, "Enable content hash check on every read and write")
	allowOther := pflag.Bool("allow-other", false, "Allow access by other users")
	pflag.Parse()

	if *showVersion {
		fmt.Printf("memfs version %s\n", version)
		return
	}
	if *showHelp {
		usage()
		return
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load configuration: %v", err)
		os.Exit(1)
	}

	if cfg.LogFile != "" {
		logger.UseFile(cfg.LogFile)
	}
	logger.SetLevel(logging.ParseLevel(cfg.LogLevel))
	if *verbose {
		logger.SetLevel(logging.LevelDebug)
	}

	if pflag.NArg() != 1 {
		usage()
		os.Exit(1)
	}
	mountpoint := filepath.Clean(pflag.Arg(0))

	logger.Info("Starting memfs %s...", version)
	logger.Debug("Mount point: %s", mountpoint)
	logger.Debug("UID: %d, GID: %d", cfg.UID, cfg.GID)

	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err == nil {
		logger.Info("Host memory: %s total, %s free",
			humanize.IBytes(uint64(info.Totalram)*uint64(info.Unit)),
			humanize.IBytes(uint64(info.Freeram)*uint64(info.Unit)))
	}

	engine := core.NewMemFS(uint32(cfg.UID), uint32(cfg.GID))
	if cfg.HashCheck || *hashCheck {
		engine.EnableHashCheck()
	}

	fsys := fs.NewFS(engine)

	logger.Debug("Setting up signal handlers...")
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("Mounting filesystem...")
	errc, err := fsys.Mount(mountpoint, *allowOther)
	if err != nil {
		logger.Error("Mount failed: %v", err)
		os.Exit(1)
	}
	defer fsys.Close()

	go func() {
		sig := <-sigChan
		logger.Info("Received signal %v", sig)
		if err := fsys.Unmount(mountpoint); err != nil {
			logger.Error("Unmount error: %v", err)
		}
	}()

	if err := <-errc; err != nil {
		logger.Error("FUSE server error: %v", err)
		os.Exit(1)
	}

	logger.Info("Clean shutdown complete")
}
