package searchcore

import (
	"sync"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_csharp "github.com/tree-sitter/tree-sitter-c-sharp/bindings/go"
	tree_sitter_cpp "github.com/tree-sitter/tree-sitter-cpp/bindings/go"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"
	tree_sitter_java "github.com/tree-sitter/tree-sitter-java/bindings/go"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_php "github.com/tree-sitter/tree-sitter-php/bindings/go"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	tree_sitter_rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
	tree_sitter_zig "github.com/tree-sitter-grammars/tree-sitter-zig/bindings/go"
)

// languageDef binds a tree-sitter grammar to the file extensions it parses
// and the synthetic harness lasr wraps a pattern fragment in so tree-sitter
// will accept it as a standalone unit (a bare expression like "f($ARGS)" is
// not a valid top-level construct in most grammars). Grounded on the
// teacher's internal/parser/parser_language_setup.go, generalized from
// "build a query" to "build a matchable fragment."
type languageDef struct {
	name string
	exts []string
	load func() *tree_sitter.Language
	wrap func(pattern string) (wrapped string, offset int)
}

func wrapBraces(prefix, suffix string) func(string) (string, int) {
	return func(pattern string) (string, int) {
		return prefix + pattern + suffix, len(prefix)
	}
}

var languageDefs = []languageDef{
	{
		name: "go",
		exts: []string{".go"},
		load: func() *tree_sitter.Language { return tree_sitter.NewLanguage(tree_sitter_go.Language()) },
		wrap: wrapBraces("package p\nfunc _lasr_(){\n", "\n}\n"),
	},
	{
		name: "javascript",
		exts: []string{".js", ".jsx", ".mjs", ".cjs"},
		load: func() *tree_sitter.Language { return tree_sitter.NewLanguage(tree_sitter_javascript.Language()) },
		wrap: wrapBraces("function _lasr_(){\n", "\n}\n"),
	},
	{
		name: "typescript",
		exts: []string{".ts"},
		load: func() *tree_sitter.Language {
			return tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript())
		},
		wrap: wrapBraces("function _lasr_(){\n", "\n}\n"),
	},
	{
		name: "tsx",
		exts: []string{".tsx"},
		load: func() *tree_sitter.Language { return tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTSX()) },
		wrap: wrapBraces("function _lasr_(){\n", "\n}\n"),
	},
	{
		name: "python",
		exts: []string{".py"},
		load: func() *tree_sitter.Language { return tree_sitter.NewLanguage(tree_sitter_python.Language()) },
		wrap: wrapBraces("", ""),
	},
	{
		name: "rust",
		exts: []string{".rs"},
		load: func() *tree_sitter.Language { return tree_sitter.NewLanguage(tree_sitter_rust.Language()) },
		wrap: wrapBraces("fn _lasr_(){\n", "\n}\n"),
	},
	{
		name: "java",
		exts: []string{".java"},
		load: func() *tree_sitter.Language { return tree_sitter.NewLanguage(tree_sitter_java.Language()) },
		wrap: wrapBraces("class _Lasr_ { void _lasr_(){\n", "\n} }\n"),
	},
	{
		name: "csharp",
		exts: []string{".cs"},
		load: func() *tree_sitter.Language { return tree_sitter.NewLanguage(tree_sitter_csharp.Language()) },
		wrap: wrapBraces("class _Lasr_ { void _lasr_(){\n", "\n} }\n"),
	},
	{
		name: "cpp",
		exts: []string{".cpp", ".cc", ".cxx", ".hpp", ".h", ".hh"},
		load: func() *tree_sitter.Language { return tree_sitter.NewLanguage(tree_sitter_cpp.Language()) },
		wrap: wrapBraces("void _lasr_(){\n", "\n}\n"),
	},
	{
		name: "php",
		exts: []string{".php"},
		load: func() *tree_sitter.Language { return tree_sitter.NewLanguage(tree_sitter_php.LanguagePHP()) },
		wrap: wrapBraces("<?php\nfunction _lasr_(){\n", "\n}\n"),
	},
	{
		name: "zig",
		exts: []string{".zig"},
		load: func() *tree_sitter.Language { return tree_sitter.NewLanguage(tree_sitter_zig.Language()) },
		wrap: wrapBraces("fn _lasr_() void {\n", "\n}\n"),
	},
}

var (
	extToLang   map[string]*languageDef
	extToLangMu sync.Once
)

func languageForExt(ext string) *languageDef {
	extToLangMu.Do(func() {
		extToLang = make(map[string]*languageDef)
		for i := range languageDefs {
			ld := &languageDefs[i]
			for _, e := range ld.exts {
				extToLang[e] = ld
			}
		}
	})
	return extToLang[ext]
}
