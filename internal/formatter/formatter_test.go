package formatter

import (
	"strings"
	"testing"

	"github.com/desertthunder/mixtape/internal/history"
	th "github.com/desertthunder/mixtape/internal/testing"
)

func samplePlaylist() *history.SavedPlaylist {
	return &history.SavedPlaylist{
		ID:          "test123",
		Name:        "Test Playlist",
		Description: "A test playlist",
		Mode:        "vibe",
		Tracks: []history.SavedTrack{
			{
				Position: 1,
				TrackID:  "track1",
				Title:    "Song One",
				Artist:   "Artist One",
				Source:   "history",
				Reason:   "in your rotation (5 plays)",
				Score:    th.FloatPtr(0.87),
			},
			{
				Position: 2,
				TrackID:  "track2",
				Title:    "Song Two",
				Artist:   "Artist Two",
				Source:   "discovery",
				Reason:   "deep cut from Album Two",
				Score:    th.FloatPtr(0.64),
			},
		},
	}
}

func TestExporters(t *testing.T) {
	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(samplePlaylist())
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		output := string(data)

		if !strings.Contains(output, "Position,ID,Title,Artist,Source,Reason,Score") {
			t.Errorf("CSV missing headers, got: %s", output)
		}
		if !strings.Contains(output, "track1") {
			t.Errorf("CSV missing track1 ID")
		}
		if !strings.Contains(output, "Song One") {
			t.Errorf("CSV missing track1 title")
		}
		if !strings.Contains(output, "0.870") {
			t.Errorf("CSV missing track1 score")
		}
		if !strings.Contains(output, "in your rotation (5 plays)") {
			t.Errorf("CSV missing track1 reason")
		}
	})

	t.Run("ExportToCSV Without Scores", func(t *testing.T) {
		playlist := samplePlaylist()
		playlist.Tracks[0].Score = nil

		data, err := ExportToCSV(playlist)
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		if len(lines) != 3 {
			t.Fatalf("expected header plus 2 rows, got %d lines", len(lines))
		}
		if !strings.HasSuffix(lines[1], ",") {
			t.Errorf("expected empty score column for track1, got: %s", lines[1])
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		data, err := ExportToMarkdown(samplePlaylist())
		if err != nil {
			t.Fatalf("ExportToMarkdown failed: %v", err)
		}

		output := string(data)

		if !strings.Contains(output, "# Test Playlist") {
			t.Errorf("Markdown missing title")
		}
		if !strings.Contains(output, "**Description**: A test playlist") {
			t.Errorf("Markdown missing description")
		}
		if !strings.Contains(output, "**Mode**: vibe") {
			t.Errorf("Markdown missing mode")
		}
		if !strings.Contains(output, "**Tracks**: 2") {
			t.Errorf("Markdown missing track count")
		}
		if !strings.Contains(output, "## Tracks") {
			t.Errorf("Markdown missing tracks section")
		}
		if !strings.Contains(output, "1. Artist One - Song One (in your rotation (5 plays)) [0.87]") {
			t.Errorf("Markdown missing track1, got: %s", output)
		}
	})

	t.Run("ExportToText", func(t *testing.T) {
		data, err := ExportToText(samplePlaylist())
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}

		output := string(data)

		if !strings.Contains(output, "Playlist: Test Playlist") {
			t.Errorf("Text missing playlist name")
		}
		if !strings.Contains(output, "Description: A test playlist") {
			t.Errorf("Text missing description")
		}
		if !strings.Contains(output, "Tracks: 2") {
			t.Errorf("Text missing track count")
		}
		if !strings.Contains(output, "1. Artist One - Song One") {
			t.Errorf("Text missing track1")
		}
		if !strings.Contains(output, "2. Artist Two - Song Two") {
			t.Errorf("Text missing track2")
		}
	})

	t.Run("ToMetadataJSON", func(t *testing.T) {
		data, err := ToMetadataJSON(*samplePlaylist())
		if err != nil {
			t.Fatalf("ToMetadataJSON failed: %v", err)
		}

		output := string(data)

		if !strings.Contains(output, `"test123"`) {
			t.Errorf("JSON missing ID field")
		}
		if !strings.Contains(output, `"Test Playlist"`) {
			t.Errorf("JSON missing Name field")
		}
		if strings.Contains(output, `"track1"`) {
			t.Errorf("metadata JSON should not include tracks")
		}
	})

	t.Run("ExportToJSON", func(t *testing.T) {
		data, err := ExportToJSON(samplePlaylist())
		if err != nil {
			t.Fatalf("ExportToJSON failed: %v", err)
		}

		output := string(data)

		if !strings.Contains(output, `"test123"`) {
			t.Errorf("JSON missing playlist ID")
		}
		if !strings.Contains(output, `"track1"`) {
			t.Errorf("JSON missing track1 ID")
		}
		if !strings.Contains(output, `"Song One"`) {
			t.Errorf("JSON missing track1 title")
		}
	})
}

func TestWriters(t *testing.T) {
	t.Run("WriteCSVExport", func(t *testing.T) {
		t.Run("WithDefaultPath", func(t *testing.T) {
			tempDir := t.TempDir()
			originalDir := th.MustGetwd(t)
			th.MustChdir(t, tempDir)
			defer th.MustChdir(t, originalDir)

			result, err := WriteCSVExport(samplePlaylist(), "")
			if err != nil {
				t.Fatalf("WriteCSVExport failed: %v", err)
			}

			if result.TracksFile != "test123_tracks.csv" {
				t.Errorf("Expected tracks file 'test123_tracks.csv', got '%s'", result.TracksFile)
			}
			if result.MetadataFile != "test123_metadata.json" {
				t.Errorf("Expected metadata file 'test123_metadata.json', got '%s'", result.MetadataFile)
			}

			th.AssertFileExists(t, result.TracksFile)
			th.AssertFileExists(t, result.MetadataFile)

			csvContent := th.MustReadFile(t, result.TracksFile)
			if !strings.Contains(csvContent, "Position,ID,Title,Artist,Source,Reason,Score") {
				t.Errorf("CSV missing headers")
			}
			if !strings.Contains(csvContent, "track1") || !strings.Contains(csvContent, "Song One") {
				t.Errorf("CSV missing track data")
			}

			metadataContent := th.MustReadFile(t, result.MetadataFile)
			if !strings.Contains(metadataContent, "test123") || !strings.Contains(metadataContent, "Test Playlist") {
				t.Errorf("Metadata JSON missing expected fields")
			}
		})

		t.Run("WithCustomPath", func(t *testing.T) {
			tempDir := t.TempDir()
			originalDir := th.MustGetwd(t)
			th.MustChdir(t, tempDir)
			defer th.MustChdir(t, originalDir)

			result, err := WriteCSVExport(samplePlaylist(), "custom_export")
			if err != nil {
				t.Fatalf("WriteCSVExport failed: %v", err)
			}

			if result.TracksFile != "custom_export_tracks.csv" {
				t.Errorf("Expected 'custom_export_tracks.csv', got '%s'", result.TracksFile)
			}
			if result.MetadataFile != "custom_export_metadata.json" {
				t.Errorf("Expected 'custom_export_metadata.json', got '%s'", result.MetadataFile)
			}

			th.AssertFileExists(t, result.TracksFile)
			th.AssertFileExists(t, result.MetadataFile)
		})
	})

	t.Run("WriteMarkdownExport", func(t *testing.T) {
		t.Run("WithDefaultDirectory", func(t *testing.T) {
			tempDir := t.TempDir()
			originalDir := th.MustGetwd(t)
			th.MustChdir(t, tempDir)
			defer th.MustChdir(t, originalDir)

			mdFile, err := WriteMarkdownExport(samplePlaylist(), "")
			if err != nil {
				t.Fatalf("WriteMarkdownExport failed: %v", err)
			}

			if mdFile != "test123/README.md" {
				t.Errorf("Expected 'test123/README.md', got '%s'", mdFile)
			}
			th.AssertFileExists(t, mdFile)

			content := th.MustReadFile(t, mdFile)
			if !strings.Contains(content, "# Test Playlist") {
				t.Errorf("Markdown missing title")
			}
			if !strings.Contains(content, "1. Artist One - Song One") {
				t.Errorf("Markdown missing track listing")
			}
		})

		t.Run("WithCustomDirectory", func(t *testing.T) {
			tempDir := t.TempDir()
			originalDir := th.MustGetwd(t)
			th.MustChdir(t, tempDir)
			defer th.MustChdir(t, originalDir)

			mdFile, err := WriteMarkdownExport(samplePlaylist(), "custom_playlist")
			if err != nil {
				t.Fatalf("WriteMarkdownExport failed: %v", err)
			}

			if mdFile != "custom_playlist/README.md" {
				t.Errorf("Expected 'custom_playlist/README.md', got '%s'", mdFile)
			}
			th.AssertFileExists(t, mdFile)
		})
	})

	t.Run("WriteTextExport", func(t *testing.T) {
		t.Run("WithDefaultPath", func(t *testing.T) {
			tempDir := t.TempDir()
			originalDir := th.MustGetwd(t)
			th.MustChdir(t, tempDir)
			defer th.MustChdir(t, originalDir)

			filepath, err := WriteTextExport(samplePlaylist(), "")
			if err != nil {
				t.Fatalf("WriteTextExport failed: %v", err)
			}

			if filepath != "test123_tracks.txt" {
				t.Errorf("Expected 'test123_tracks.txt', got '%s'", filepath)
			}

			th.AssertFileExists(t, filepath)

			content := th.MustReadFile(t, filepath)
			if !strings.Contains(content, "Playlist: Test Playlist") {
				t.Errorf("Text missing playlist name")
			}
			if !strings.Contains(content, "1. Artist One - Song One") {
				t.Errorf("Text missing track listing")
			}
		})

		t.Run("WithCustomPath", func(t *testing.T) {
			tempDir := t.TempDir()
			originalDir := th.MustGetwd(t)
			th.MustChdir(t, tempDir)
			defer th.MustChdir(t, originalDir)

			filepath, err := WriteTextExport(samplePlaylist(), "my_playlist.txt")
			if err != nil {
				t.Fatalf("WriteTextExport failed: %v", err)
			}

			if filepath != "my_playlist.txt" {
				t.Errorf("Expected 'my_playlist.txt', got '%s'", filepath)
			}

			th.AssertFileExists(t, filepath)
		})
	})

	t.Run("WriteJSONExport", func(t *testing.T) {
		tempDir := t.TempDir()
		originalDir := th.MustGetwd(t)
		th.MustChdir(t, tempDir)
		defer th.MustChdir(t, originalDir)

		filepath, err := WriteJSONExport(samplePlaylist(), "")
		if err != nil {
			t.Fatalf("WriteJSONExport failed: %v", err)
		}

		if filepath != "test123.json" {
			t.Errorf("Expected 'test123.json', got '%s'", filepath)
		}

		th.AssertFileExists(t, filepath)

		content := th.MustReadFile(t, filepath)
		if !strings.Contains(content, `"test123"`) {
			t.Errorf("JSON missing playlist ID")
		}
		if !strings.Contains(content, `"track1"`) {
			t.Errorf("JSON missing track data")
		}
	})
}
