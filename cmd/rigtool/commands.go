package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/Faultbox/rigbridge/internal/logger"
	"github.com/Faultbox/rigbridge/pkg/armature"
	"github.com/Faultbox/rigbridge/pkg/rig"
	"github.com/Faultbox/rigbridge/pkg/rigfile"
)

func (a *app) infoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <rig.yaml>",
		Short: "Show the bone hierarchy of a rig",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scene := armature.NewScene("rigtool")
			arm, err := loadRig(scene, args[0])
			if err != nil {
				return err
			}
			printInfo(cmd.OutOrStdout(), arm)
			return nil
		},
	}
}

func printInfo(w io.Writer, arm *armature.Armature) {
	bones := arm.Bones()
	scale := arm.World().ScaleFactors()
	fmt.Fprintf(w, "Armature: %s\n", arm.Name())
	fmt.Fprintf(w, "Bones:    %d\n", arm.Len())
	fmt.Fprintf(w, "Scale:    %.4g %.4g %.4g\n", scale.X, scale.Y, scale.Z)
	if groups := arm.Groups(); len(groups) > 0 {
		fmt.Fprintf(w, "Groups:   %s\n", strings.Join(groups, ", "))
	}
	fmt.Fprintln(w)

	var walk func(b *armature.Bone, depth int)
	walk = func(b *armature.Bone, depth int) {
		fmt.Fprintf(w, "%s%s  (length %.4g, layers %v)\n",
			strings.Repeat("  ", depth), b.Name(), b.Length(), layerIndices(b.Layers()))
		for _, c := range bones.Children(b) {
			walk(c, depth+1)
		}
	}
	for _, r := range bones.Roots() {
		walk(r, 0)
	}
}

func layerIndices(l armature.Layers) []int {
	var out []int
	for i := 0; i < armature.MaxLayers; i++ {
		if l.Has(i) {
			out = append(out, i)
		}
	}
	return out
}

func (a *app) accessoriesCmd() *cobra.Command {
	var mappingPath string
	cmd := &cobra.Command{
		Use:   "accessories <rig.yaml>",
		Short: "List the roots of bone chains the mapping table does not cover",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if mappingPath == "" {
				mappingPath = a.cfg.Retarget.MappingFile
			}
			if mappingPath == "" {
				return errors.New("no mapping table: pass --mapping or set retarget.mapping_file")
			}
			table, err := rigfile.LoadMapping(mappingPath)
			if err != nil {
				return err
			}

			scene := armature.NewScene("rigtool")
			arm, err := loadRig(scene, args[0])
			if err != nil {
				return err
			}
			for _, name := range rig.FindAccessoryBones(a.session(scene), table, arm) {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&mappingPath, "mapping", "m", "", "Bone mapping table (default retarget.mapping_file)")
	return cmd
}

func (a *app) copySubtreeCmd() *cobra.Command {
	var bone, destName, parent, out, as string
	var layer int
	cmd := &cobra.Command{
		Use:   "copy-subtree <src.yaml> <dst.yaml>",
		Short: "Copy the bones below a source bone into another rig",
		Long: `copy-subtree copies --bone and every bone below it from the source rig into
the destination rig, converting through world space. The copied root is
renamed to --dest-name and parented under --parent; all copies go to --layer.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("layer") {
				layer = a.cfg.Retarget.MetaLayer
			}
			if destName == "" {
				destName = bone
			}

			scene := armature.NewScene("rigtool")
			src, dst, err := loadPair(scene, args[0], args[1])
			if err != nil {
				return err
			}
			if dst, err = workingCopy(scene, dst, as); err != nil {
				return err
			}
			defs, err := rig.CopySubtree(a.session(scene), src, dst, bone, destName, parent, layer)
			if err != nil {
				return err
			}
			if len(defs) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "%s has no subtree to copy\n", bone)
				return nil
			}
			for _, d := range defs {
				fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", d.Name, d.DestName)
			}
			path, err := saveRig(dst, out, args[1], as)
			if err != nil {
				return err
			}
			logger.Info("rig written", logger.Rig(dst.Name()), logger.Layer(layer))
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&bone, "bone", "", "Root bone of the subtree in the source rig")
	cmd.Flags().StringVar(&destName, "dest-name", "", "Name of the copied root (default --bone)")
	cmd.Flags().StringVar(&parent, "parent", "", "Destination bone the copied root is parented to")
	cmd.Flags().IntVar(&layer, "layer", 0, "Layer of the copied bones (default retarget.meta_layer)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default overwrite the destination)")
	addAsFlag(cmd, &as)
	_ = cmd.MarkFlagRequired("bone")
	return cmd
}

func (a *app) copyBoneCmd() *cobra.Command {
	var bone, destName, parent, out, as string
	var scale float32
	cmd := &cobra.Command{
		Use:   "copy-bone <src.yaml> <dst.yaml>",
		Short: "Copy one bone into another rig, resolving convention prefixes",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("scale") {
				scale = a.cfg.Retarget.BoneScale
			}
			if destName == "" {
				destName = bone
			}

			scene := armature.NewScene("rigtool")
			src, dst, err := loadPair(scene, args[0], args[1])
			if err != nil {
				return err
			}
			if dst, err = workingCopy(scene, dst, as); err != nil {
				return err
			}
			b, err := rig.CopyRLEditBone(a.session(scene), src, dst, bone, destName, parent, scale)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", bone, b.Name())
			path, err := saveRig(dst, out, args[1], as)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&bone, "bone", "", "Source bone; convention prefixes are stripped until a bone matches")
	cmd.Flags().StringVar(&destName, "dest-name", "", "Name of the new bone (default --bone)")
	cmd.Flags().StringVar(&parent, "parent", "", "Destination parent bone")
	cmd.Flags().Float32Var(&scale, "scale", 1, "Length scale of the copy (default retarget.bone_scale)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default overwrite the destination)")
	addAsFlag(cmd, &as)
	_ = cmd.MarkFlagRequired("bone")
	return cmd
}

func (a *app) copyPositionCmd() *cobra.Command {
	var bone, out, as string
	var from []string
	var offset float32
	cmd := &cobra.Command{
		Use:   "copy-position <rig.yaml>",
		Short: "Place a bone at the average of other bones",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("offset") {
				offset = a.cfg.Retarget.CopyPositionOffset
			}

			scene := armature.NewScene("rigtool")
			arm, err := loadRig(scene, args[0])
			if err != nil {
				return err
			}
			if arm, err = workingCopy(scene, arm, as); err != nil {
				return err
			}
			b, err := rig.CopyPosition(a.session(scene), arm, bone, from, offset)
			if err != nil {
				return err
			}
			head, tail := b.Head(), b.Tail()
			fmt.Fprintf(cmd.OutOrStdout(), "%s head (%.4g, %.4g, %.4g) tail (%.4g, %.4g, %.4g)\n",
				b.Name(), head.X, head.Y, head.Z, tail.X, tail.Y, tail.Z)
			path, err := saveRig(arm, out, args[0], as)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&bone, "bone", "", "Bone to move")
	cmd.Flags().StringSliceVar(&from, "from", nil, "Bones to average (repeatable)")
	cmd.Flags().Float32Var(&offset, "offset", 0, "Offset along the averaged bone axis (default retarget.copy_position_offset)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default overwrite the rig)")
	addAsFlag(cmd, &as)
	_ = cmd.MarkFlagRequired("bone")
	return cmd
}
