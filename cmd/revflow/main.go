// cmd/revflow/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"revflow/client"
	"revflow/internal/change"
	"revflow/internal/diff"
	"revflow/internal/history"
	"revflow/internal/model"
	"revflow/internal/repo"
)

var rootCmd = &cobra.Command{
	Use:   "revflow",
	Short: "Revflow tracks file histories across copies, renames and replacements",
	Long: `Revflow builds a revision graph of file histories from recorded change
events. It follows files through copies, renames, deletions and
replacements, and computes line-level diffs between any two revisions
of a flow.`,
}

func init() {
	var replayCmd = &cobra.Command{
		Use:   "replay [bundle]",
		Short: "Replay a bundle and summarize the resulting history graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, bundle, err := replayBundle(args[0])
			if err != nil {
				return err
			}

			graph := manager.Graph()
			fmt.Printf("Replayed bundle %s: %d nodes\n\n", bundle.ID(), graph.NodeCount())
			printNodes(graph.Nodes())
			return nil
		},
	}

	var historyCmd = &cobra.Command{
		Use:   "history [bundle] [path]",
		Short: "Show the revision chain of a file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			revParam, _ := cmd.Flags().GetString("rev")
			rev, err := model.ParseRevision(revParam)
			if err != nil {
				return err
			}

			manager, bundle, err := replayBundle(args[0])
			if err != nil {
				return err
			}

			node := manager.Graph().NodeFor(model.NewRevisionedFile(args[1], rev, bundle.ID()))
			if node == nil {
				return fmt.Errorf("no history for %s@%s", args[1], rev)
			}

			flow := flowTo(node)
			for _, n := range flow {
				f := n.File()
				fmt.Printf("%-8s %-12s %s\n", f.Revision, n.Type(), f.Path)
			}
			return nil
		},
	}
	historyCmd.Flags().StringP("rev", "r", "local", "Revision to trace back from")

	var diffCmd = &cobra.Command{
		Use:   "diff [old] [new]",
		Short: "Show line changes between two files on disk",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			oldContent, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}
			newContent, err := os.ReadFile(args[1])
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[1], err)
			}

			oldFile := model.NewRevisionedFile(args[0], model.LocalRevision(), "")
			newFile := model.NewRevisionedFile(args[1], model.LocalRevision(), "")

			pairs := diff.NewEngine(nil).Diff(oldFile, oldContent, newFile, newContent)
			if len(pairs) == 0 {
				fmt.Println("Files are identical")
				return nil
			}

			fmt.Printf("diff a/%s b/%s\n", args[0], args[1])
			printPairs(pairs)
			return nil
		},
	}

	// Remote commands query a running server.
	var serverURL string
	var remoteCmd = &cobra.Command{
		Use:   "remote",
		Short: "Query a running history server",
	}
	remoteCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", "http://localhost:8080", "Server base URL")

	var remoteFlowCmd = &cobra.Command{
		Use:   "flow [path]",
		Short: "Show the revision chain of a file on the server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			revParam, _ := cmd.Flags().GetString("rev")

			flow, err := client.New(serverURL).Flow(context.Background(), args[0], revParam)
			if err != nil {
				return err
			}
			for _, n := range flow {
				fmt.Printf("%-8s %-12s %s\n", n.Revision, n.Type, n.Path)
			}
			return nil
		},
	}
	remoteFlowCmd.Flags().StringP("rev", "r", "local", "Revision to trace back from")

	var remoteDiffCmd = &cobra.Command{
		Use:   "diff [path]",
		Short: "Show line changes of a revision on the server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			revParam, _ := cmd.Flags().GetString("rev")
			ancestorParam, _ := cmd.Flags().GetString("ancestor")

			result, err := client.New(serverURL).Diff(context.Background(), args[0], revParam, ancestorParam)
			if err != nil {
				return err
			}
			if len(result.Pairs) == 0 {
				fmt.Println("No changes")
				return nil
			}

			fmt.Printf("diff %s@%s %s@%s\n", result.Old.Path, result.Old.Revision, result.New.Path, result.New.Revision)
			pairs := make([]model.FragmentPair, len(result.Pairs))
			for i, p := range result.Pairs {
				pairs[i] = model.FragmentPair{Old: p.Old.Fragment, New: p.New.Fragment}
			}
			printPairs(pairs)
			return nil
		},
	}
	remoteDiffCmd.Flags().StringP("rev", "r", "local", "Revision to diff")
	remoteDiffCmd.Flags().StringP("ancestor", "a", "", "Ancestor revision to diff against")

	var remoteChangeSetsCmd = &cobra.Command{
		Use:   "changesets",
		Short: "List the change sets the server has applied",
		RunE: func(cmd *cobra.Command, args []string) error {
			sets, err := client.New(serverURL).ChangeSets(context.Background())
			if err != nil {
				return err
			}
			if len(sets) == 0 {
				fmt.Println("No change sets recorded")
				return nil
			}
			for _, cs := range sets {
				fmt.Printf("%s  %s  %d events  [%s]\n",
					cs.ID[:8],
					cs.CreatedAt.Format("2006-01-02 15:04:05"),
					len(cs.Events),
					cs.Description,
				)
			}
			return nil
		},
	}

	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(diffCmd)
	rootCmd.AddCommand(remoteCmd)

	remoteCmd.AddCommand(remoteFlowCmd)
	remoteCmd.AddCommand(remoteDiffCmd)
	remoteCmd.AddCommand(remoteChangeSetsCmd)
}

func replayBundle(path string) (*change.Manager, *repo.Bundle, error) {
	bundle, err := repo.Open(path)
	if err != nil {
		return nil, nil, err
	}

	manager := change.NewManager(zap.NewNop(), nil, nil)
	if err := manager.Replay(context.Background(), bundle); err != nil {
		return nil, nil, fmt.Errorf("replaying bundle: %w", err)
	}
	return manager, bundle, nil
}

// flowTo walks ancestor edges back to the root and returns the chain
// oldest first. At branch points the first recorded ancestor wins.
func flowTo(node *history.Node) []*history.Node {
	var flow []*history.Node
	seen := make(map[*history.Node]bool)
	for current := node; current != nil && !seen[current]; {
		seen[current] = true
		flow = append(flow, current)
		ancestors := current.Ancestors()
		if len(ancestors) == 0 {
			break
		}
		current = ancestors[0].Ancestor()
	}
	for i, j := 0, len(flow)-1; i < j; i, j = i+1, j-1 {
		flow[i], flow[j] = flow[j], flow[i]
	}
	return flow
}

func printNodes(nodes []*history.Node) {
	sorted := append([]*history.Node(nil), nodes...)
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i].File(), sorted[j].File()
		if a.Path != b.Path {
			return a.Path < b.Path
		}
		return a.Revision.Compare(b.Revision) < 0
	})

	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()

	for _, n := range sorted {
		f := n.File()
		marker := " "
		switch n.Type() {
		case history.NodeNormal:
			marker = green("●")
		case history.NodeDeleted:
			marker = red("✗")
		case history.NodeReplaced:
			marker = yellow("↺")
		case history.NodeUnconfirmed:
			marker = "○"
		}
		fmt.Printf("  %s %-8s %s\n", marker, f.Revision, f.Path)
	}
}

func printPairs(pairs []model.FragmentPair) {
	added := color.New(color.FgGreen)
	removed := color.New(color.FgRed)
	header := color.New(color.FgCyan)

	for _, p := range pairs {
		header.Printf("@@ -%d,%d +%d,%d @@\n",
			p.Old.From.Line, p.Old.LineCount(),
			p.New.From.Line, p.New.LineCount(),
		)
		for _, line := range splitContent(p.Old.Content) {
			removed.Printf("-%s\n", line)
		}
		for _, line := range splitContent(p.New.Content) {
			added.Printf("+%s\n", line)
		}
	}
}

func splitContent(content string) []string {
	if content == "" {
		return nil
	}
	var lines []string
	start := 0
	for i := 0; i < len(content); i++ {
		if content[i] == '\n' {
			lines = append(lines, content[start:i])
			start = i + 1
		}
	}
	if start < len(content) {
		lines = append(lines, content[start:])
	}
	return lines
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
