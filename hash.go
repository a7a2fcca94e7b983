package main

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
)

func hashFile(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer file.Close()
	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}

// hashDirectories hashes every regular file under dirPaths, in walk order,
// together with its path relative to the directory it was found in. A path
// naming a file hashes just that file.
func hashDirectories(dirPaths ...string) (string, error) {
	hash := sha256.New()
	for _, dirPath := range dirPaths {
		err := filepath.Walk(dirPath, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if !info.IsDir() {
				fileHash, err := hashFile(path)
				if err != nil {
					return err
				}
				rel, err := filepath.Rel(dirPath, path)
				if err != nil {
					return err
				}
				hash.Write([]byte(filepath.ToSlash(rel)))
				hash.Write([]byte(fileHash))
			}
			return nil
		})
		if err != nil {
			return "", err
		}
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}
