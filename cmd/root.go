// Package cmd implements the command-line interface for reel.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	cc "github.com/ivanpirog/coloredcobra"
	"github.com/reel-cli/reel/color"
	"github.com/reel-cli/reel/constant"
	"github.com/reel-cli/reel/handle"
	"github.com/reel-cli/reel/history"
	"github.com/reel-cli/reel/icon"
	"github.com/reel-cli/reel/key"
	"github.com/reel-cli/reel/log"
	"github.com/reel-cli/reel/media"
	"github.com/reel-cli/reel/player"
	"github.com/reel-cli/reel/style"
	"github.com/reel-cli/reel/tui"
	"github.com/reel-cli/reel/version"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print the application version")

	rootCmd.PersistentFlags().StringP("icons", "I", "", "Set the visual icon variant (e.g., nerd, emoji, plain)")
	lo.Must0(rootCmd.RegisterFlagCompletionFunc("icons", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return icon.AvailableVariants(), cobra.ShellCompDirectiveDefault
	}))
	lo.Must0(viper.BindPFlag(key.IconsVariant, rootCmd.PersistentFlags().Lookup("icons")))

	rootCmd.Flags().StringP("backend", "b", "", "Playback backend to start with (mpv or vlc)")
	lo.Must0(rootCmd.RegisterFlagCompletionFunc("backend", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return lo.Map(player.Kinds, func(k player.Kind, _ int) string { return k.String() }), cobra.ShellCompDirectiveNoFileComp
	}))

	rootCmd.Flags().BoolP("remember", "r", true, "Remember the backend that played the file")
	lo.Must0(viper.BindPFlag(key.HistoryRememberBackend, rootCmd.Flags().Lookup("remember")))

	helpFunc := rootCmd.HelpFunc()
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		helpFunc(cmd, args)
		version.Notify()
	})
}

// rootCmd plays a single local media file.
var rootCmd = &cobra.Command{
	Use:   constant.Reel + " <file>",
	Short: "Play local media through mpv or VLC with retries and fallback",
	Long: constant.AsciiArtLogo + "\n" +
		style.New().Italic(true).Foreground(color.HiRed).Render("    - Play local media through mpv or VLC with retries and fallback"),
	Args: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("version") {
			return nil
		}
		return cobra.ExactArgs(1)(cmd, args)
	},
	Run: func(cmd *cobra.Command, args []string) {
		if cmd.Flags().Changed("version") {
			versionCmd.Run(versionCmd, args)
			return
		}

		file, err := media.Stat(args[0])
		handleErr(err)

		kind, err := selectBackend(lo.Must(cmd.Flags().GetString("backend")), file)
		handleErr(err)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
		defer stop()

		handleErr(play(ctx, file, kind))
	},
}

// selectBackend picks the flag value, then the remembered backend for file, then the configured default.
func selectBackend(flag string, file *media.File) (player.Kind, error) {
	if flag != "" {
		return player.ParseKind(flag)
	}

	if viper.GetBool(key.HistoryRememberBackend) {
		if kind, ok := history.Backend(file).Get(); ok {
			log.Infof("using remembered backend %s for %s", kind, file.Name)
			return kind, nil
		}
	}

	return player.ParseKind(viper.GetString(key.Player))
}

func play(ctx context.Context, file *media.File, kind player.Kind) error {
	handles := handle.New(handle.WithAcceptor(media.NewPolicy(viper.GetInt64(key.MediaMaxSizeMB) << 20)))
	defer func() {
		if err := handles.Close(); err != nil {
			log.Warn(err)
		}
	}()

	if _, err := handles.Listen(ctx, viper.GetString(key.HandleListen)); err != nil {
		return err
	}

	defer player.Default.Reset()

	return tui.Run(ctx, &tui.Options{
		File:    file,
		Kind:    kind,
		Handles: handles,
		Factory: player.Default,
	})
}

// Execute initializes child command routing and processes the CLI entry point.
func Execute() {
	if viper.GetBool(key.CliColored) {
		cc.Init(&cc.Config{
			RootCmd:       rootCmd,
			Headings:      cc.HiCyan + cc.Bold + cc.Underline,
			Commands:      cc.HiYellow + cc.Bold,
			Example:       cc.Italic,
			ExecName:      cc.Bold,
			Flags:         cc.Bold,
			FlagsDataType: cc.Italic + cc.HiBlue,
		})
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func handleErr(err error) {
	if err != nil {
		log.Error(err)
		_, _ = fmt.Fprintf(os.Stderr, "%s %s\n", icon.Get(icon.Fail), strings.Trim(err.Error(), " \n"))
		os.Exit(1)
	}
}
