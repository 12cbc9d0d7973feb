package lsp

import (
	"strings"

	"go.lsp.dev/protocol"

	"github.com/pyfixls/pyfixls/internal/pystrings"
)

// uriToPath converts a document URI to a file path, stripping a file://
// scheme when present.
func uriToPath(uri protocol.DocumentURI) string {
	s := string(uri)
	if strings.HasPrefix(s, "file://") {
		return s[len("file://"):]
	}
	return s
}

// pathToURI is the inverse of uriToPath.
func pathToURI(path string) protocol.DocumentURI {
	return protocol.DocumentURI("file://" + path)
}

// toInternalLine converts a 0-based LSP line to our 1-based internal line.
func toInternalLine(line uint32) int { return int(line) + 1 }

// toLSPLine converts our 1-based internal line to a 0-based LSP line.
func toLSPLine(line int) uint32 {
	if line <= 0 {
		return 0
	}
	return uint32(line - 1)
}

// wordAt finds the identifier covering (line, char) in content, using
// 0-based LSP coordinates for both input and output.
func wordAt(content string, line uint32, char uint32) (name string, start, end uint32, ok bool) {
	lines := strings.Split(content, "\n")
	internalLine := toInternalLine(line)
	if internalLine < 1 || internalLine > len(lines) {
		return "", 0, 0, false
	}
	text := lines[internalLine-1]
	n, s, e, found := pystrings.IdentifierAt(text, int(char))
	if !found {
		return "", 0, 0, false
	}
	return n, uint32(s), uint32(e), true
}

// lineText returns the raw text of a 0-based LSP line in content.
func lineText(content string, line uint32) string {
	lines := strings.Split(content, "\n")
	internalLine := toInternalLine(line)
	if internalLine < 1 || internalLine > len(lines) {
		return ""
	}
	return lines[internalLine-1]
}
