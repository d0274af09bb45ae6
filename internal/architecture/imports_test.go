package architecture_test

import (
	"bufio"
	"fmt"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

type violation struct {
	file string
	imp  string
	rule string
}

// walkImports calls check for every import of every Go file under internal/.
func walkImports(t *testing.T, check func(rel string, isTest bool, imp string) (rule string, bad bool)) []violation {
	t.Helper()

	start, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	root, err := findModuleRoot(start)
	if err != nil {
		t.Fatalf("find module root: %v", err)
	}

	internalDir := filepath.Join(root, "internal")
	fset := token.NewFileSet()
	var violations []violation

	walkErr := filepath.WalkDir(internalDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			switch d.Name() {
			case ".git", "vendor", "node_modules", ".gocache":
				return filepath.SkipDir
			default:
				return nil
			}
		}
		if !strings.HasSuffix(path, ".go") {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		isTest := strings.HasSuffix(rel, "_test.go")

		f, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
		if err != nil {
			return err
		}
		for _, spec := range f.Imports {
			if spec == nil || spec.Path == nil {
				continue
			}
			imp, err := strconv.Unquote(spec.Path.Value)
			if err != nil {
				continue
			}
			if rule, bad := check(rel, isTest, imp); bad {
				violations = append(violations, violation{file: rel, imp: imp, rule: rule})
			}
		}
		return nil
	})
	if walkErr != nil {
		t.Fatalf("walk internal/: %v", walkErr)
	}
	return violations
}

func report(t *testing.T, title string, violations []violation) {
	t.Helper()
	if len(violations) == 0 {
		return
	}
	var b strings.Builder
	b.WriteString(title + ":\n")
	for _, v := range violations {
		fmt.Fprintf(&b, "- %s imports %q (disallowed: %q)\n", v.file, v.imp, v.rule)
	}
	t.Fatal(b.String())
}

func modulePathOf(t *testing.T) string {
	t.Helper()
	start, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	root, err := findModuleRoot(start)
	if err != nil {
		t.Fatalf("find module root: %v", err)
	}
	mp, err := readModulePath(filepath.Join(root, "go.mod"))
	if err != nil {
		t.Fatalf("read module path: %v", err)
	}
	return mp
}

func TestImportBoundaries(t *testing.T) {
	modulePath := modulePathOf(t)
	violations := walkImports(t, func(rel string, isTest bool, imp string) (string, bool) {
		for _, bad := range disallowedImports(modulePath, layerFor(rel), isTest) {
			if strings.HasPrefix(imp, bad) {
				return bad, true
			}
		}
		return "", false
	})
	report(t, "import boundary violations", violations)
}

func TestNoClientsImportsOutsideWiring(t *testing.T) {
	modulePath := modulePathOf(t)
	prefix := modulePath + "/internal/clients/"
	violations := walkImports(t, func(rel string, _ bool, imp string) (string, bool) {
		if strings.HasPrefix(rel, "internal/clients/") || strings.HasPrefix(rel, "internal/app/") {
			return "", false
		}
		return prefix, strings.HasPrefix(imp, prefix)
	})
	report(t, "internal/clients imports found outside internal/app (inject interfaces instead)", violations)
}

func layerFor(rel string) string {
	switch {
	case strings.HasPrefix(rel, "internal/platform/"):
		return "platform"
	case strings.HasPrefix(rel, "internal/domain/"):
		return "domain"
	case strings.HasPrefix(rel, "internal/modules/"):
		return "modules"
	case strings.HasPrefix(rel, "internal/data/"):
		return "data"
	default:
		return ""
	}
}

// Test files may reach into lower-level stores to build fixtures; production code may not.
func disallowedImports(modulePath string, layer string, isTest bool) []string {
	internal := modulePath + "/internal/"
	switch layer {
	case "platform":
		return []string{internal + "modules/", internal + "http/", internal + "app/", internal + "data/", internal + "observability"}
	case "domain":
		return []string{internal + "modules/", internal + "http/", internal + "app/", internal + "data/", internal + "platform/"}
	case "modules":
		out := []string{internal + "http/", internal + "app/"}
		if !isTest {
			out = append(out, internal+"data/")
		}
		return out
	case "data":
		out := []string{internal + "http/", internal + "app/"}
		if !isTest {
			out = append(out, internal+"modules/")
		}
		return out
	default:
		return nil
	}
}

func findModuleRoot(start string) (string, error) {
	dir := start
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("go.mod not found from %s", start)
		}
		dir = parent
	}
}

func readModulePath(goModPath string) (string, error) {
	f, err := os.Open(goModPath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}
		if !strings.HasPrefix(line, "module ") {
			continue
		}
		mp := strings.TrimSpace(strings.TrimPrefix(line, "module "))
		if mp == "" {
			return "", fmt.Errorf("empty module path in %s", goModPath)
		}
		return mp, nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", fmt.Errorf("module path not found in %s", goModPath)
}
