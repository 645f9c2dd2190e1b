package shell

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	lerrors "github.com/r3d91ll/fuzzylink/pkg/errors"
	"github.com/r3d91ll/fuzzylink/pkg/export"
	"github.com/r3d91ll/fuzzylink/pkg/help"
	"github.com/r3d91ll/fuzzylink/pkg/linkograph"
)

func (s *Shell) handleHelp(args []string) error {
	r := help.NewRenderer(s.out, s.errs.UseColor)
	if len(args) == 0 {
		r.RenderFull()
		return nil
	}
	if !r.RenderCommand(args[0]) {
		return lerrors.CommandErrorf(lerrors.ErrCommandNotFound, "no help for %q", args[0]).
			WithSuggestion("Type /help to list commands")
	}
	return nil
}

func (s *Shell) printEpisodes() {
	w := tabwriter.NewWriter(s.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "\tEPISODE\tMOVES\tLINKS")
	for _, ep := range s.session.Episodes {
		marker := ""
		if ep.ID == s.current {
			marker = "*"
		}
		links := "computed"
		if ep.Links != nil {
			links = "imported"
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", marker, ep.ID, len(ep.Moves), links)
	}
	w.Flush()
}

func (s *Shell) handleUse(args []string) error {
	if len(args) != 1 {
		return lerrors.CommandError(lerrors.ErrCommandMissingArgs, "usage: /use <episode>")
	}
	ep, err := s.session.Episode(args[0])
	if err != nil {
		return err
	}
	s.current = ep.ID
	s.printf("Using episode %s (%d moves)\n", ep.ID, len(ep.Moves))
	return nil
}

func (s *Shell) handleSummary() error {
	g, err := s.graph()
	if err != nil {
		return err
	}
	sum := g.Summary(s.config.Analysis)

	w := tabwriter.NewWriter(s.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Episode\t%s\n", g.Name)
	fmt.Fprintf(w, "Moves\t%d\n", sum.MoveCount)
	fmt.Fprintf(w, "Actors\t%d\n", sum.ActorCount)
	fmt.Fprintf(w, "Links\t%d of %d pairs >= %.2f\n", sum.LinkCount, sum.PairCount, s.config.Analysis.MinLinkStrength)
	fmt.Fprintf(w, "Score mean/sd\t%.4f / %.4f\n", sum.MeanScore, sum.StdDevScore)
	fmt.Fprintf(w, "Link density index\t%.4f\n", sum.LinkDensityIndex)
	fmt.Fprintf(w, "Entropy\t%.4f\n", sum.Entropy)
	if sum.ActorCount > 1 {
		fmt.Fprintf(w, "Copies\t%d\n", sum.CopyCount)
	}
	w.Flush()

	for _, warning := range g.Warnings {
		s.printf("warning: %s\n", warning)
	}
	return nil
}

func (s *Shell) handleMoves() error {
	g, err := s.graph()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(s.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tACTOR\tBACK\tFORE\tBACK H\tFORE H\tCRIT\tTEXT")
	for i, m := range g.Moves {
		fmt.Fprintf(w, "%d\t%d\t%.3f\t%.3f\t%.3f\t%.3f\t%s\t%s\n",
			i, m.Actor,
			m.BacklinkWeight, m.ForelinkWeight,
			m.BacklinkEntropy, m.ForelinkEntropy,
			criticalMarker(m), truncate(m.Text, 48))
	}
	return w.Flush()
}

func criticalMarker(m linkograph.Move) string {
	switch {
	case m.BacklinkCriticalMove && m.ForelinkCriticalMove:
		return "<>"
	case m.BacklinkCriticalMove:
		return "<"
	case m.ForelinkCriticalMove:
		return ">"
	}
	return ""
}

func (s *Shell) handleLinks(args []string) error {
	if len(args) != 1 {
		return lerrors.CommandError(lerrors.ErrCommandMissingArgs, "usage: /links <move index>")
	}
	g, err := s.graph()
	if err != nil {
		return err
	}
	i, err := strconv.Atoi(args[0])
	if err != nil || i < 0 || i >= len(g.Moves) {
		return lerrors.CommandErrorf(lerrors.ErrCommandInvalidArg, "move index must be 0..%d", len(g.Moves)-1).
			WithContext("arg", args[0])
	}

	minStrength := s.config.Analysis.MinLinkStrength
	s.printf("Move %d: %s\n", i, truncate(g.Moves[i].Text, 72))

	w := tabwriter.NewWriter(s.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DIR\tMOVE\tSCORE\tLINKED")
	for j := 0; j < i; j++ {
		score, _ := g.Links.At(i, j)
		fmt.Fprintf(w, "back\t%d\t%.4f\t%s\n", j, score, linkedMarker(score, minStrength))
	}
	for j := i + 1; j < len(g.Moves); j++ {
		score, _ := g.Links.At(j, i)
		fmt.Fprintf(w, "fore\t%d\t%.4f\t%s\n", j, score, linkedMarker(score, minStrength))
	}
	return w.Flush()
}

func linkedMarker(score, minStrength float64) string {
	if score >= minStrength {
		return "yes"
	}
	return ""
}

func (s *Shell) handleCritical() error {
	g, err := s.graph()
	if err != nil {
		return err
	}
	count := s.config.Analysis.CriticalMoveCount
	back := make([]float64, len(g.Moves))
	fore := make([]float64, len(g.Moves))
	for i, m := range g.Moves {
		back[i], fore[i] = m.BacklinkWeight, m.ForelinkWeight
	}

	w := tabwriter.NewWriter(s.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DIR\tMOVE\tWEIGHT\tTEXT")
	for _, i := range linkograph.CriticalMoves(back, count) {
		fmt.Fprintf(w, "back\t%d\t%.4f\t%s\n", i, back[i], truncate(g.Moves[i].Text, 48))
	}
	for _, i := range linkograph.CriticalMoves(fore, count) {
		fmt.Fprintf(w, "fore\t%d\t%.4f\t%s\n", i, fore[i], truncate(g.Moves[i].Text, 48))
	}
	return w.Flush()
}

func (s *Shell) handleEntropy() error {
	g, err := s.graph()
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(s.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Backlink\t%.4f\n", g.BacklinkEntropy)
	fmt.Fprintf(w, "Forelink\t%.4f\n", g.ForelinkEntropy)
	fmt.Fprintf(w, "Horizon\t%.4f\n", g.HorizonlinkEntropy)
	fmt.Fprintf(w, "Total\t%.4f\n", g.Entropy)
	return w.Flush()
}

func (s *Shell) handleActors() error {
	g, err := s.graph()
	if err != nil {
		return err
	}
	if g.LinkDensitiesByActorPair == nil {
		s.printf("Only one actor in episode %s; no actor statistics.\n", g.Name)
		return nil
	}

	pairs := make([]string, 0, len(g.LinkDensitiesByActorPair))
	for k := range g.LinkDensitiesByActorPair {
		pairs = append(pairs, k)
	}
	sort.Strings(pairs)

	w := tabwriter.NewWriter(s.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PAIR\tDENSITY\tPAIRS")
	for _, k := range pairs {
		fmt.Fprintf(w, "%s\t%.4f\t%d\n", k, g.LinkDensitiesByActorPair[k], g.ActorPairLinkCounts[k])
	}
	if err := w.Flush(); err != nil {
		return err
	}
	s.printf("Copies (score >= %.2f): %d\n", s.config.Analysis.CopyThreshold, g.CopyCount)
	return nil
}

func (s *Shell) handleThreshold(args []string) error {
	if len(args) == 0 {
		s.printf("Minimum link strength: %.4f\n", s.config.Analysis.MinLinkStrength)
		return nil
	}
	v, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return lerrors.CommandError(lerrors.ErrCommandInvalidArg, "threshold must be a number").
			WithContext("arg", args[0])
	}

	cfg := s.config.Analysis
	cfg.MinLinkStrength = v
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.config.Analysis = cfg
	clear(s.analyzed)
	s.printf("Minimum link strength set to %.4f\n", v)
	return nil
}

func (s *Shell) handleExport(args []string) error {
	g, err := s.graph()
	if err != nil {
		return err
	}
	dir := s.config.ExportDir
	if len(args) > 0 {
		dir = args[0]
	}
	if dir == "" {
		dir = "."
	}

	files, err := export.WriteFiles(dir, g, s.config.Analysis, s.config.CSV, s.config.ToolVersion)
	if err != nil {
		return err
	}
	for _, p := range files.Paths() {
		s.printf("wrote %s\n", p)
	}
	return nil
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
