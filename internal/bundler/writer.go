package bundler

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// BundleOptions describes the artifacts to package. ArtifactPaths and
// ArtifactNames are parallel slices: ArtifactPaths[i] is read from disk and
// stored in the archive as ArtifactNames[i].
type BundleOptions struct {
	ArtifactPaths []string
	ArtifactNames []string
	OutputPath    string
}

// CreateBundle writes a deterministic zip: manifest.json first, then every
// artifact in sorted name order, then README.txt last.
func CreateBundle(opts BundleOptions, readmeContent string, manifest *BundleManifest) error {
	outputFile, err := os.Create(opts.OutputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer outputFile.Close()

	zipWriter := zip.NewWriter(outputFile)
	defer zipWriter.Close()

	if manifest != nil {
		manifestJSON, err := manifest.ToJSON()
		if err != nil {
			return fmt.Errorf("failed to serialize manifest: %w", err)
		}
		if err := addStringToZip(zipWriter, string(manifestJSON), "manifest.json"); err != nil {
			return fmt.Errorf("failed to add manifest: %w", err)
		}
		for _, f := range manifest.Files {
			idx := indexOf(opts.ArtifactNames, f.Name)
			if idx == -1 {
				continue
			}
			if err := addFileToZip(zipWriter, opts.ArtifactPaths[idx], f.Name); err != nil {
				return fmt.Errorf("failed to add %s: %w", f.Name, err)
			}
		}
	}

	if err := addStringToZip(zipWriter, readmeContent, "README.txt"); err != nil {
		return fmt.Errorf("failed to add README: %w", err)
	}

	return nil
}

func indexOf(names []string, name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return -1
}

func addFileToZip(zw *zip.Writer, srcPath, destName string) error {
	file, err := os.Open(srcPath)
	if err != nil {
		return err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return err
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}

	header.Name = filepath.Base(destName)
	header.Method = zip.Deflate
	header.Modified = time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC)

	writer, err := zw.CreateHeader(header)
	if err != nil {
		return err
	}

	_, err = io.Copy(writer, file)
	return err
}

func addStringToZip(zw *zip.Writer, content, filename string) error {
	header := &zip.FileHeader{
		Name:     filename,
		Method:   zip.Deflate,
		Modified: time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	writer, err := zw.CreateHeader(header)
	if err != nil {
		return err
	}

	_, err = writer.Write([]byte(content))
	return err
}
