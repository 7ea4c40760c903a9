//go:build ignore

package main

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/sirupsen/logrus"
)

const linkRepo = "https://github.com/Ableton/link.git"

func run(dir string, name string, args ...string) {
	cmd := exec.Command(name, args...)
	cmd.Dir = dir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		logrus.Fatalf("%s %v: %v", name, args, err)
	}
}

func main() {
	// Get the directory where this source file is located
	_, filename, _, _ := runtime.Caller(0)
	root := filepath.Join(filepath.Dir(filename), "..")
	linkDir := filepath.Join(root, "vendor", "link")
	buildDir := filepath.Join(linkDir, "build")

	if _, err := os.Stat(linkDir); os.IsNotExist(err) {
		logrus.Infof("Cloning %s", linkRepo)
		run(root, "git", "clone", "--recursive", "--depth", "1", linkRepo, linkDir)
	}

	if err := os.MkdirAll(buildDir, 0o755); err != nil {
		logrus.Fatalf("Failed to create build directory: %v", err)
	}
	run(buildDir, "cmake", "..", "-DCMAKE_BUILD_TYPE=Release")
	run(buildDir, "cmake", "--build", ".", "--target", "abl_link")

	// cgo links against build/libabl_link.a; cmake nests it per target.
	dst := filepath.Join(buildDir, "libabl_link.a")
	err := filepath.WalkDir(buildDir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() || d.Name() != "libabl_link.a" || path == dst {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return os.WriteFile(dst, data, 0o644)
	})
	if err != nil {
		logrus.Fatalf("Failed to locate libabl_link.a: %v", err)
	}
	logrus.Infof("Built abl_link in %s", buildDir)
}
