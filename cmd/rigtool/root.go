package main

import (
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Faultbox/rigbridge/internal/config"
	"github.com/Faultbox/rigbridge/internal/logger"
	"github.com/Faultbox/rigbridge/pkg/armature"
	"github.com/Faultbox/rigbridge/pkg/rig"
	"github.com/Faultbox/rigbridge/pkg/rigfile"
)

// app is the state shared by every subcommand once the config is loaded.
type app struct {
	overrides *config.Overrides
	cfg       *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "rigtool",
		Short: "Inspect and retarget armature rig documents",
		Long: `rigtool works on YAML rig documents: it lists bones, finds accessory
bones a mapping table does not cover, and copies bones and bone subtrees
between rigs.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*a.overrides)
			if err != nil {
				return err
			}
			a.cfg = cfg
			if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
				return err
			}
			logger.Debug("command started", zap.String("command", cmd.Name()))
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	a.overrides = config.BindFlags(root.PersistentFlags())

	root.AddCommand(
		a.infoCmd(),
		a.accessoriesCmd(),
		a.copySubtreeCmd(),
		a.copyBoneCmd(),
		a.copyPositionCmd(),
	)
	return root
}

// session returns a rig session over scene that logs through the global
// logger and resolves names with the configured prefixes.
func (a *app) session(scene *armature.Scene) *rig.Session {
	s := rig.NewSession(scene, logger.Named("rig"))
	s.Resolver = a.cfg.Retarget.Resolver()
	return s
}

// loadRig reads a rig document and links it into scene.
func loadRig(scene *armature.Scene, path string) (*armature.Armature, error) {
	doc, err := rigfile.Load(path)
	if err != nil {
		return nil, err
	}
	return rigfile.ToArmature(scene, doc)
}

// loadPair loads a source and destination rig. The same file loads once
// and serves both roles.
func loadPair(scene *armature.Scene, srcPath, dstPath string) (src, dst *armature.Armature, err error) {
	src, err = loadRig(scene, srcPath)
	if err != nil {
		return nil, nil, err
	}
	if filepath.Clean(srcPath) == filepath.Clean(dstPath) {
		return src, src, nil
	}
	dst, err = loadRig(scene, dstPath)
	if err != nil {
		return nil, nil, err
	}
	return src, dst, nil
}

// workingCopy returns arm, or when as is set a clone of arm named as and
// linked into scene. Edits to the clone leave the loaded rig as it was read.
func workingCopy(scene *armature.Scene, arm *armature.Armature, as string) (*armature.Armature, error) {
	if as == "" {
		return arm, nil
	}
	c, err := arm.Clone(as)
	if err != nil {
		return nil, err
	}
	if err := scene.Add(c); err != nil {
		return nil, errors.Wrapf(err, "linking %s", as)
	}
	logger.Debug("working on a copy", logger.Rig(arm.Name()), zap.String("as", as))
	return c, nil
}

// saveRig writes a to out. Without out it goes next to fallback as
// <name>.yaml when a is a renamed copy, or back over fallback otherwise.
func saveRig(a *armature.Armature, out, fallback, as string) (string, error) {
	switch {
	case out != "":
	case as != "":
		out = filepath.Join(filepath.Dir(fallback), as+".yaml")
	default:
		out = fallback
	}
	return out, rigfile.Save(out, rigfile.FromArmature(a))
}

func addAsFlag(cmd *cobra.Command, as *string) {
	cmd.Flags().StringVar(as, "as", "", "Apply the change to a copy of the rig with this name, leaving the input rig unchanged")
}
