package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"study-buddy/internal/services"
)

func analyzeCmd() *cobra.Command {
	var text string
	var pdfPath string
	var imagePath string
	var withPlaylists bool

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze one syllabus and print the outline as JSON",
		Example: `  studybuddy analyze --text "Unit 1: Sorting, searching, hashing"
  studybuddy analyze --pdf syllabus.pdf --playlists
  studybuddy analyze --image page.jpg`,
		RunE: func(cmd *cobra.Command, args []string) error {
			src, closeSrc, err := sourceFromFlags(text, pdfPath, imagePath)
			if err != nil {
				return err
			}
			defer closeSrc()

			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			outline, err := a.analysis.AnalyzeSource(cmd.Context(), src, withPlaylists, nil)
			if err != nil {
				return fmt.Errorf("analyze %s: %w", src.Kind, err)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			enc.SetEscapeHTML(false)
			return enc.Encode(outline)
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "syllabus text")
	cmd.Flags().StringVar(&pdfPath, "pdf", "", "path to a syllabus PDF")
	cmd.Flags().StringVar(&imagePath, "image", "", "path to a photographed syllabus page")
	cmd.Flags().BoolVar(&withPlaylists, "playlists", false, "attach a YouTube playlist to important topics")
	cmd.MarkFlagsMutuallyExclusive("text", "pdf", "image")
	cmd.MarkFlagsOneRequired("text", "pdf", "image")
	return cmd
}

// sourceFromFlags opens the selected input. The returned func closes any
// file it opened.
func sourceFromFlags(text, pdfPath, imagePath string) (services.Source, func(), error) {
	noop := func() {}
	switch {
	case pdfPath != "":
		return openFileSource(services.SourcePDF, pdfPath)
	case imagePath != "":
		return openFileSource(services.SourceImage, imagePath)
	case text != "":
		return services.Source{Kind: services.SourceText, Text: text}, noop, nil
	default:
		return services.Source{}, noop, errors.New("one of --text, --pdf or --image is required")
	}
}

func openFileSource(kind services.SourceKind, path string) (services.Source, func(), error) {
	f, err := os.Open(path)
	if err != nil {
		return services.Source{}, nil, fmt.Errorf("open %s: %w", kind, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return services.Source{}, nil, fmt.Errorf("stat %s: %w", kind, err)
	}
	return services.Source{Kind: kind, Reader: f, Size: info.Size()}, func() { f.Close() }, nil
}
