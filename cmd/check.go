// Package cmd implements the command-line interface for reel.
package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"

	"github.com/charmbracelet/lipgloss"
	"github.com/reel-cli/reel/constant"
	"github.com/reel-cli/reel/icon"
	"github.com/reel-cli/reel/key"
	"github.com/reel-cli/reel/player"
	"github.com/reel-cli/reel/style"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.SetOut(os.Stdout)
}

// checkCmd reports which playback backends can be started on this machine.
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify that the playback backends are installed",
	Run: func(cmd *cobra.Command, args []string) {
		var missing int

		for _, kind := range player.Kinds {
			binary := backendBinary(kind)
			path, err := exec.LookPath(binary)
			if err != nil {
				missing++
				printMissingDependencyError(kind, binary)
				continue
			}

			cmd.Printf("%s %s %s\n", icon.Get(icon.Success), style.Bold(kind.Display()), style.Faint(path))
		}

		if missing == len(player.Kinds) {
			os.Exit(1)
		}
	},
}

func backendBinary(kind player.Kind) string {
	switch kind {
	case player.VLC:
		return viper.GetString(key.PlayerVLCPath)
	default:
		return viper.GetString(key.PlayerMPVPath)
	}
}

func installCommand(kind player.Kind) string {
	pkg := kind.String()

	switch runtime.GOOS {
	case constant.Darwin:
		if kind == player.VLC {
			return "brew install --cask vlc"
		}
		return "brew install " + pkg
	case constant.Linux:
		return "sudo apt install " + pkg
	case constant.Windows:
		return "scoop install " + pkg
	default:
		return ""
	}
}

func printMissingDependencyError(kind player.Kind, binary string) {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(style.HiRed).
		Padding(1, 2).
		Margin(1, 0)

	title := style.New().Bold(true).Foreground(style.HiRed).Render(fmt.Sprintf("%s %s is not available", icon.Get(icon.Fail), kind.Display()))
	body := style.New().Foreground(style.Text).Render(fmt.Sprintf("The executable '%s' was not found in your PATH.", binary))

	suggestion := ""
	if installCmd := installCommand(kind); installCmd != "" {
		suggestion = fmt.Sprintf("\n\nTo install it, try running:\n  %s", style.New().Foreground(style.AccentColor).Bold(true).Render(installCmd))
	}

	fmt.Println(box.Render(
		lipgloss.JoinVertical(lipgloss.Left,
			title,
			"\n",
			body,
			suggestion,
		),
	))
}
