package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/turtacn/molview/internal/infrastructure/storage/minio"
)

// objectList is the output of list.
type objectList struct {
	Bucket  string             `json:"bucket"`
	Prefix  string             `json:"prefix"`
	Objects []minio.ObjectInfo `json:"objects"`
}

func (l objectList) String() string {
	var b strings.Builder
	for _, o := range l.Objects {
		fmt.Fprintf(&b, "s3://%s/%s\t%d\n", o.Bucket, o.Key, o.Size)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (l objectList) TableHeaders() []string { return []string{"Key", "Size", "Modified"} }

func (l objectList) TableRows() [][]string {
	rows := make([][]string, len(l.Objects))
	for i, o := range l.Objects {
		rows[i] = []string{o.Key, strconv.FormatInt(o.Size, 10), o.LastModified.UTC().Format(time.RFC3339)}
	}
	return rows
}

func newListCmd() *cobra.Command {
	var suffix string
	cmd := &cobra.Command{
		Use:   "list [s3://bucket/prefix]",
		Short: "List structures in object storage",
		Long: "List the objects under a bucket prefix. Without an argument the configured\n" +
			"storage.minio.bucket is listed.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, appMetrics{})
			if err != nil {
				return err
			}
			store, err := a.requireStore()
			if err != nil {
				return err
			}
			var bucket, prefix string
			if len(args) == 1 {
				if bucket, prefix, err = splitObjectURI(args[0]); err != nil {
					return err
				}
			}
			if bucket == "" {
				bucket = a.cc.Config.Storage.MinIO.Bucket
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), a.cc.Timeout)
			defer cancel()
			objs, err := store.List(ctx, bucket, prefix)
			if err != nil {
				return err
			}
			out := objectList{Bucket: bucket, Prefix: prefix, Objects: []minio.ObjectInfo{}}
			for _, o := range objs {
				if suffix == "" || strings.HasSuffix(strings.ToLower(o.Key), strings.ToLower(suffix)) {
					out.Objects = append(out.Objects, o)
				}
			}
			return PrintResult(cmd, out)
		},
	}
	cmd.Flags().StringVar(&suffix, "suffix", "", "only list keys ending in this suffix, e.g. .pdb")
	return cmd
}

//Personal.AI order the ending
