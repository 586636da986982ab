package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kinderslides/kinderslides/internal/model"
	"github.com/kinderslides/kinderslides/internal/topics"
)

// itemResolver is the part of resolve.Resolver used by commands and handlers.
type itemResolver interface {
	Resolve(ctx context.Context, item model.Item) model.Result
}

var (
	topicName   string
	topicFile   string
	topicOutDir string
)

var topicCmd = &cobra.Command{
	Use:   "topic",
	Short: "Find pictures for every item of a topic",
	Long:  "Resolves each item of a topic in order, writes the images and a manifest.json to the output directory. Items without a picture are listed as placeholders.",
	Example: `  kinderslides topic --name ABC
  kinderslides topic --name Fruit --file my-topics.yaml --out-dir fruit`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		catalog, err := loadCatalog(topicFile)
		if err != nil {
			return err
		}
		topic, ok := catalog.Get(topicName)
		if !ok {
			return eris.Errorf("unknown topic %q (available: %s)", topicName, strings.Join(catalog.Names(), ", "))
		}

		env, err := initResolver(ctx, "resolve")
		if err != nil {
			return err
		}
		defer env.Close()

		dir := topicOutDir
		if dir == "" {
			dir = defaultTopicDir(topic.Name)
		}

		m, err := runTopic(ctx, env.Resolver, topic, dir)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d/%d items with pictures, written to %s\n",
			m.Topic, m.Available, len(m.Items), dir)
		return nil
	},
}

func init() {
	topicCmd.Flags().StringVar(&topicName, "name", "", "topic name (see `kinderslides topics`)")
	topicCmd.Flags().StringVar(&topicFile, "file", "", "custom topics file (.yaml, .yml or .xlsx)")
	topicCmd.Flags().StringVar(&topicOutDir, "out-dir", "", "output directory (default KinderSlides_<topic>_<id>)")
	_ = topicCmd.MarkFlagRequired("name")
	rootCmd.AddCommand(topicCmd)
}

// loadCatalog returns the built-in topics, extended by file when set.
func loadCatalog(file string) (*topics.Catalog, error) {
	catalog := topics.Builtin()
	if file == "" {
		return catalog, nil
	}
	custom, err := topics.LoadFile(file)
	if err != nil {
		return nil, err
	}
	return catalog.Merge(custom), nil
}

func defaultTopicDir(name string) string {
	return fmt.Sprintf("KinderSlides_%s_%s",
		strings.ReplaceAll(name, " ", "_"), strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

// runTopic resolves the items of topic one at a time. A failed image write
// marks that item as a placeholder; it never stops the batch.
func runTopic(ctx context.Context, r itemResolver, topic topics.Topic, dir string) (manifest, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return manifest{}, eris.Wrapf(err, "create %s", dir)
	}

	log := zap.L().With(zap.String("topic", topic.Name))
	m := manifest{
		Topic:       topic.Name,
		GeneratedAt: time.Now().UTC(),
		Items:       make([]resultSummary, 0, len(topic.Items)),
	}

	for i, item := range topic.Items {
		res := r.Resolve(ctx, item)
		s := summarize(item, res)
		s.Index = i + 1

		if res.Available() {
			name := fmt.Sprintf("%02d-%s%s", i+1, slug(item.MainWord()), extFor(res.MediaType))
			if err := os.WriteFile(filepath.Join(dir, name), res.Image, 0o644); err != nil {
				log.Warn("topic: write image failed", zap.String("item", item.Name), zap.Error(err))
				s.Placeholder = true
			} else {
				s.File = name
			}
		}

		if s.Placeholder {
			m.Unavailable++
		} else {
			m.Available++
		}
		m.Items = append(m.Items, s)
	}

	if err := writeManifest(dir, m); err != nil {
		return m, err
	}
	log.Info("topic: finished",
		zap.Int("items", len(m.Items)),
		zap.Int("available", m.Available),
		zap.String("dir", dir),
	)
	return m, nil
}
