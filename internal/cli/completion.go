package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/billmal071/libgendl/internal/db"
	"github.com/billmal071/libgendl/internal/tui"
)

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion scripts",
	Long: `Generate shell completion scripts for libgendl.

To load completions:

Bash:
  $ source <(libgendl completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ libgendl completion bash > /etc/bash_completion.d/libgendl
  # macOS:
  $ libgendl completion bash > /usr/local/etc/bash_completion.d/libgendl

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it.  You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ libgendl completion zsh > "${fpath[1]}/_libgendl"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ libgendl completion fish | source

  # To load completions for each session, execute once:
  $ libgendl completion fish > ~/.config/fish/completions/libgendl.fish

PowerShell:
  PS> libgendl completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> libgendl completion powershell > libgendl.ps1
  # and source this file from your PowerShell profile.`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.ExactValidArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		switch args[0] {
		case "bash":
			return rootCmd.GenBashCompletion(os.Stdout)
		case "zsh":
			return rootCmd.GenZshCompletion(os.Stdout)
		case "fish":
			return rootCmd.GenFishCompletion(os.Stdout, true)
		case "powershell":
			return rootCmd.GenPowerShellCompletionWithDesc(os.Stdout)
		default:
			return fmt.Errorf("unsupported shell: %s", args[0])
		}
	},
}

func init() {
	// Add dynamic completion for download IDs
	verifyCmd.ValidArgsFunction = completeDownloadIDs
	resolveCmd.ValidArgsFunction = completeHashes
	downloadCmd.ValidArgsFunction = completeHashes
}

// completeDownloadIDs provides dynamic completion for download IDs
func completeDownloadIDs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	// Get all downloads
	downloads, err := db.ListDownloads("", true)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}

	var completions []string
	for _, d := range downloads {
		// Format: "ID:Title (Status)"
		completion := fmt.Sprintf("%d\t%s (%s)", d.ID, tui.Truncate(d.Title, 40), d.Status)
		completions = append(completions, completion)
	}

	return completions, cobra.ShellCompDirectiveNoFileComp
}

// completeHashes offers the content hashes of earlier downloads
func completeHashes(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	downloads, err := db.ListDownloads("", true)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}

	seen := make(map[string]bool)
	var completions []string
	for _, d := range downloads {
		if seen[d.MD5Hash] {
			continue
		}
		seen[d.MD5Hash] = true
		completions = append(completions, fmt.Sprintf("%s\t%s", d.MD5Hash, tui.Truncate(d.Title, 40)))
	}

	return completions, cobra.ShellCompDirectiveNoFileComp
}
