/*
 * root.go, part of gopdfgui.
 * 
 * Copyright 2026 Raul Mera <rmera{at}chemDOThelsinkiDOTfi>
 * 
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as 
 * published by the Free Software Foundation; either version 2.1 of the 
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General 
 * Public License along with this program.  If not, see 
 * <http://www.gnu.org/licenses/>.
 * 
 */
/***Dedicated to the long life of the Ven. Khenpo Phuntzok Tenzin Rinpoche***/

package main

import (
	"context"
	"fmt"
	"io"
	"math"

	"github.com/rmera/gopdfgui/config"
	"github.com/rmera/gopdfgui/engine"
	"github.com/rmera/gopdfgui/fitting"
	"github.com/rmera/gopdfgui/project"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type rootOptions struct {
	ConfigPath string
	LogLevel   string
	Run        bool
	Output     string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "pdfgui [project]",
		Short: "Inspect, refine and save PDF modeling projects",
		Long: "pdfgui loads a project archive, prints its fits, phases, datasets and\n" +
			"calculations, optionally refines every fit through the fit queue and\n" +
			"saves the result.",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), cmd.OutOrStdout(), opts, args)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&opts.ConfigPath, "config", "c", "", "configuration file (YAML)")
	f.StringVar(&opts.LogLevel, "log-level", "", "log level (debug, info, warn, error), overrides the configuration")
	f.BoolVar(&opts.Run, "run", false, "refine every fit and print the results")
	f.StringVarP(&opts.Output, "output", "o", "", "save the project to this archive")
	return cmd
}

func run(ctx context.Context, out io.Writer, opts *rootOptions, args []string) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}
	if opts.LogLevel != "" {
		cfg.Log.Level = opts.LogLevel
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer logger.Sync()
	compression, err := project.ParseCompression(cfg.Archive.Compression)
	if err != nil {
		return err
	}
	E := engine.New(logger.Named("engine"))
	E.MaxIterations = cfg.Engine.MaxIterations
	E.MaxEvaluations = cfg.Engine.MaxEvaluations
	E.Tolerance = cfg.Engine.Tolerance
	E.Stall = cfg.Engine.Stall

	P := project.New("", project.WithEngine(E), project.WithLogger(logger), project.WithCompression(compression))
	defer P.Exit()
	if len(args) == 1 {
		if err := P.Load(args[0]); err != nil {
			return err
		}
	}
	if opts.Run {
		P.Queue().Enqueue(P.Fits(), true)
		if err := P.Queue().Wait(ctx); err != nil {
			P.Queue().Stop()
			return err
		}
	}
	summary(out, P, opts.Run)
	if opts.Output != "" {
		if err := P.Save(opts.Output); err != nil {
			return err
		}
		logger.Info("saved", zap.String("path", opts.Output))
	}
	return nil
}

func summary(w io.Writer, P *project.Project, refined bool) {
	fmt.Fprintf(w, "project %s: %d fits\n", P.Name(), P.Len())
	for _, f := range P.Fits() {
		fmt.Fprintf(w, "fit %s [%s]", f.Name(), f.Status())
		if rw := f.Rw(); !math.IsNaN(rw) && f.Status() == fitting.Completed {
			fmt.Fprintf(w, " Rw=%.6g", rw)
		}
		fmt.Fprintln(w)
		for _, s := range f.Phases() {
			fmt.Fprintf(w, "  phase %s: %d atoms\n", s.Name(), s.Initial.Len())
		}
		for _, d := range f.DataSets() {
			rmin, rmax, _ := d.FitRange()
			fmt.Fprintf(w, "  dataset %s: %d points, fit range %g-%g\n", d.Name(), d.Len(), rmin, rmax)
		}
		for _, c := range f.Calculations() {
			fmt.Fprintf(w, "  calculation %s: %d points\n", c.Name(), c.Rlen())
		}
		if !refined {
			continue
		}
		for _, p := range f.Parameters() {
			if v, err := p.Value(); err == nil {
				fmt.Fprintf(w, "  @%d = %.8g\n", p.Index, v)
			} else {
				fmt.Fprintf(w, "  @%d: %v\n", p.Index, err)
			}
		}
	}
}
