package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/iota-uz/orgmatrix/modules/orgchart/domain/orgtree"
	"github.com/iota-uz/orgmatrix/modules/orgchart/services"
)

type viewOptions struct {
	kind             string
	organizationID   int64
	entityID         int64
	includeFunctions bool
	output           string
}

func newViewCmd() *cobra.Command {
	var opts viewOptions

	cmd := &cobra.Command{
		Use:   "view",
		Short: "Build a projection and print it as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			kind, err := orgtree.ParseViewKind(opts.kind)
			if err != nil {
				return withCode(exitUsage, err)
			}
			scope := services.Scope{EntityID: opts.entityID, IncludeFunctions: opts.includeFunctions}
			if opts.organizationID > 0 {
				scope.OrganizationID = &opts.organizationID
			}

			rt, err := openRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.close()

			root, err := rt.projection().Project(rt.ctx, kind, scope)
			if err != nil {
				return withCode(exitValidation, err)
			}
			return writeTree(opts.output, root)
		},
	}

	cmd.Flags().StringVar(&opts.kind, "kind", string(orgtree.ViewHierarchy), "View: hierarchy|business|legal_entity|location")
	cmd.Flags().Int64Var(&opts.organizationID, "organization-id", 0, "Limit the hierarchy view to one organization")
	cmd.Flags().Int64Var(&opts.entityID, "id", 0, "Catalog entry for legal_entity/location views")
	cmd.Flags().BoolVar(&opts.includeFunctions, "include-functions", false, "Attach assigned functions under positions")
	cmd.Flags().StringVar(&opts.output, "output", "", "Write to this file instead of stdout")
	return cmd
}

func writeTree(path string, root *orgtree.Node) error {
	var w io.Writer = os.Stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return withCode(exitIO, errors.Wrap(err, "create output"))
		}
		defer func() { _ = f.Close() }()
		w = f
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(root); err != nil {
		return withCode(exitIO, errors.Wrap(err, "encode view"))
	}
	return nil
}
