// Package lsptypes holds the wire-level structs exchanged with child LSP
// servers. They mirror the Microsoft Language Server Protocol one-to-one
// (camelCase JSON, zero-based positions) independent of any client
// library's own modeling, because the rename handler and edit applier
// decode the polymorphic WorkspaceEdit union themselves.
package lsptypes

import "encoding/json"

// Position is a zero-based (line, character) pair.
type Position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

// PositionFromOneBasedLine converts the boundary's position
// representation (one-based line, zero-based column, spec.md §3) into
// the wire Position, which is zero-based on both axes. Every handler
// that builds a Position from a caller-supplied line goes through this
// one conversion point rather than subtracting 1 inline.
func PositionFromOneBasedLine(line, column int) Position {
	return Position{Line: line - 1, Character: column}
}

// Range is a half-open [Start, End) span over positions.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// Location pins a Range to a document URI.
type Location struct {
	URI   string `json:"uri"`
	Range Range  `json:"range"`
}

// LocationLink is the richer go-to-definition result some servers prefer.
type LocationLink struct {
	OriginSelectionRange *Range `json:"originSelectionRange,omitempty"`
	TargetURI            string `json:"targetUri"`
	TargetRange          Range  `json:"targetRange"`
	TargetSelectionRange Range  `json:"targetSelectionRange"`
}

// TextDocumentIdentifier names a document by URI.
type TextDocumentIdentifier struct {
	URI string `json:"uri"`
}

// VersionedTextDocumentIdentifier adds the document's version number.
type VersionedTextDocumentIdentifier struct {
	URI     string `json:"uri"`
	Version int    `json:"version"`
}

// OptionalVersionedTextDocumentIdentifier allows a nil version, as
// TextDocumentEdit.textDocument does when produced by some servers.
type OptionalVersionedTextDocumentIdentifier struct {
	URI     string `json:"uri"`
	Version *int   `json:"version"`
}

// TextDocumentItem is the full document sent on didOpen.
type TextDocumentItem struct {
	URI        string `json:"uri"`
	LanguageID string `json:"languageId"`
	Version    int    `json:"version"`
	Text       string `json:"text"`
}

// TextDocumentPositionParams pairs a document with a position in it.
type TextDocumentPositionParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
	Position     Position               `json:"position"`
}

// TextEdit replaces the text in Range with NewText.
type TextEdit struct {
	Range   Range  `json:"range"`
	NewText string `json:"newText"`
}

// AnnotatedTextEdit is a TextEdit carrying a change-annotation id; the
// annotation itself is not interpreted by the applier.
type AnnotatedTextEdit struct {
	TextEdit
	AnnotationID string `json:"annotationId,omitempty"`
}

// TextDocumentEdit is a list of TextEdits scoped to a single document.
type TextDocumentEdit struct {
	TextDocument OptionalVersionedTextDocumentIdentifier `json:"textDocument"`
	Edits        []TextEdit                              `json:"edits"`
}

// CreateFileOptions controls CreateFile semantics.
type CreateFileOptions struct {
	Overwrite      bool `json:"overwrite,omitempty"`
	IgnoreIfExists bool `json:"ignoreIfExists,omitempty"`
}

// CreateFile is a resource operation creating an empty file.
type CreateFile struct {
	Kind    string             `json:"kind"`
	URI     string             `json:"uri"`
	Options *CreateFileOptions `json:"options,omitempty"`
}

// RenameFileOptions controls RenameFile semantics.
type RenameFileOptions struct {
	Overwrite      bool `json:"overwrite,omitempty"`
	IgnoreIfExists bool `json:"ignoreIfExists,omitempty"`
}

// RenameFile is a resource operation moving OldURI to NewURI.
type RenameFile struct {
	Kind    string             `json:"kind"`
	OldURI  string             `json:"oldUri"`
	NewURI  string             `json:"newUri"`
	Options *RenameFileOptions `json:"options,omitempty"`
}

// DeleteFileOptions controls DeleteFile semantics.
type DeleteFileOptions struct {
	Recursive         bool `json:"recursive,omitempty"`
	IgnoreIfNotExists bool `json:"ignoreIfNotExists,omitempty"`
}

// DeleteFile is a resource operation removing a file.
type DeleteFile struct {
	Kind    string             `json:"kind"`
	URI     string             `json:"uri"`
	Options *DeleteFileOptions `json:"options,omitempty"`
}

// DocumentChangeKind discriminates the DocumentChange union on the wire.
// TextDocumentEdit carries no "kind" field; it is the default when none
// of the other three kind strings match.
type DocumentChangeKind string

const (
	DocumentChangeKindCreate DocumentChangeKind = "create"
	DocumentChangeKindRename DocumentChangeKind = "rename"
	DocumentChangeKindDelete DocumentChangeKind = "delete"
)

// DocumentChange is one element of WorkspaceEdit.documentChanges: exactly
// one of Edit, Create, Rename or Delete is populated, discriminated by
// Kind ("" means Edit).
type DocumentChange struct {
	Kind   DocumentChangeKind
	Edit   *TextDocumentEdit
	Create *CreateFile
	Rename *RenameFile
	Delete *DeleteFile
}

// UnmarshalJSON implements the discriminated-union decode: a "kind" field
// present selects CreateFile/RenameFile/DeleteFile, its absence means a
// plain TextDocumentEdit.
func (d *DocumentChange) UnmarshalJSON(data []byte) error {
	var probe struct {
		Kind string `json:"kind"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	switch DocumentChangeKind(probe.Kind) {
	case DocumentChangeKindCreate:
		var v CreateFile
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		d.Kind, d.Create = DocumentChangeKindCreate, &v
	case DocumentChangeKindRename:
		var v RenameFile
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		d.Kind, d.Rename = DocumentChangeKindRename, &v
	case DocumentChangeKindDelete:
		var v DeleteFile
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		d.Kind, d.Delete = DocumentChangeKindDelete, &v
	default:
		var v TextDocumentEdit
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		d.Kind, d.Edit = "", &v
	}
	return nil
}

// MarshalJSON re-emits whichever variant is populated.
func (d DocumentChange) MarshalJSON() ([]byte, error) {
	switch d.Kind {
	case DocumentChangeKindCreate:
		return json.Marshal(d.Create)
	case DocumentChangeKindRename:
		return json.Marshal(d.Rename)
	case DocumentChangeKindDelete:
		return json.Marshal(d.Delete)
	default:
		return json.Marshal(d.Edit)
	}
}

// WorkspaceEdit is either a flat changes map or an ordered documentChanges
// list; a server sends one or the other, never both populated.
type WorkspaceEdit struct {
	Changes        map[string][]TextEdit `json:"changes,omitempty"`
	DocumentChanges []DocumentChange     `json:"documentChanges,omitempty"`
}

// Command is a client-executable command attached to a CodeAction.
type Command struct {
	Title     string        `json:"title"`
	Command   string        `json:"command"`
	Arguments []interface{} `json:"arguments,omitempty"`
}

// SymbolKind mirrors LSP's 26-variant closed set.
type SymbolKind int

const (
	SymbolKindFile SymbolKind = iota + 1
	SymbolKindModule
	SymbolKindNamespace
	SymbolKindPackage
	SymbolKindClass
	SymbolKindMethod
	SymbolKindProperty
	SymbolKindField
	SymbolKindConstructor
	SymbolKindEnum
	SymbolKindInterface
	SymbolKindFunction
	SymbolKindVariable
	SymbolKindConstant
	SymbolKindString
	SymbolKindNumber
	SymbolKindBoolean
	SymbolKindArray
	SymbolKindObject
	SymbolKindKey
	SymbolKindNull
	SymbolKindEnumMember
	SymbolKindStruct
	SymbolKindEvent
	SymbolKindOperator
	SymbolKindTypeParameter
)

var symbolKindNames = map[SymbolKind]string{
	SymbolKindFile: "File", SymbolKindModule: "Module", SymbolKindNamespace: "Namespace",
	SymbolKindPackage: "Package", SymbolKindClass: "Class", SymbolKindMethod: "Method",
	SymbolKindProperty: "Property", SymbolKindField: "Field", SymbolKindConstructor: "Constructor",
	SymbolKindEnum: "Enum", SymbolKindInterface: "Interface", SymbolKindFunction: "Function",
	SymbolKindVariable: "Variable", SymbolKindConstant: "Constant", SymbolKindString: "String",
	SymbolKindNumber: "Number", SymbolKindBoolean: "Boolean", SymbolKindArray: "Array",
	SymbolKindObject: "Object", SymbolKindKey: "Key", SymbolKindNull: "Null",
	SymbolKindEnumMember: "EnumMember", SymbolKindStruct: "Struct", SymbolKindEvent: "Event",
	SymbolKindOperator: "Operator", SymbolKindTypeParameter: "TypeParameter",
}

// String renders the LSP SymbolKind as the name used throughout the rest
// of this daemon's normalized symbol records.
func (k SymbolKind) String() string {
	if name, ok := symbolKindNames[k]; ok {
		return name
	}
	return "Unknown"
}

// SymbolInformation is the legacy flat symbol shape some servers still
// return from textDocument/documentSymbol instead of DocumentSymbol.
type SymbolInformation struct {
	Name          string     `json:"name"`
	Kind          SymbolKind `json:"kind"`
	Location      Location   `json:"location"`
	ContainerName string     `json:"containerName,omitempty"`
}

// DocumentSymbol is the hierarchical documentSymbol response shape.
type DocumentSymbol struct {
	Name           string           `json:"name"`
	Detail         string           `json:"detail,omitempty"`
	Kind           SymbolKind       `json:"kind"`
	Range          Range            `json:"range"`
	SelectionRange Range            `json:"selectionRange"`
	Children       []DocumentSymbol `json:"children,omitempty"`
}

// Diagnostic is not consumed by this daemon's handlers but is part of the
// wire vocabulary a child server may push unsolicited.
type Diagnostic struct {
	Range    Range  `json:"range"`
	Message  string `json:"message"`
	Severity int    `json:"severity,omitempty"`
	Source   string `json:"source,omitempty"`
}

// MarkupContent is a rendered hover/documentation body.
type MarkupContent struct {
	Kind  string `json:"kind"`
	Value string `json:"value"`
}

// Hover is the textDocument/hover result; Contents may arrive as a bare
// string, a MarkupContent object, or (per older servers) a string array,
// so it is decoded manually.
type Hover struct {
	Contents string `json:"-"`
	Range    *Range `json:"range,omitempty"`
}

// UnmarshalJSON accepts any of the three historical "contents" shapes and
// flattens them to a single rendered string.
func (h *Hover) UnmarshalJSON(data []byte) error {
	var raw struct {
		Contents json.RawMessage `json:"contents"`
		Range    *Range          `json:"range,omitempty"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	h.Range = raw.Range
	if len(raw.Contents) == 0 {
		return nil
	}
	var asString string
	if err := json.Unmarshal(raw.Contents, &asString); err == nil {
		h.Contents = asString
		return nil
	}
	var asMarkup MarkupContent
	if err := json.Unmarshal(raw.Contents, &asMarkup); err == nil && asMarkup.Value != "" {
		h.Contents = asMarkup.Value
		return nil
	}
	var asList []string
	if err := json.Unmarshal(raw.Contents, &asList); err == nil {
		result := ""
		for i, s := range asList {
			if i > 0 {
				result += "\n"
			}
			result += s
		}
		h.Contents = result
		return nil
	}
	return nil
}

// ReferenceContext flags whether the declaration itself is included.
type ReferenceContext struct {
	IncludeDeclaration bool `json:"includeDeclaration"`
}

// RenameParams requests a textDocument/rename.
type RenameParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
	Position     Position               `json:"position"`
	NewName      string                 `json:"newName"`
}

// ReferenceParams requests textDocument/references.
type ReferenceParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
	Position     Position               `json:"position"`
	Context      ReferenceContext       `json:"context"`
}

// CallHierarchyItem identifies a callable at a specific selection.
type CallHierarchyItem struct {
	Name           string     `json:"name"`
	Kind           SymbolKind `json:"kind"`
	Detail         string     `json:"detail,omitempty"`
	URI            string     `json:"uri"`
	Range          Range      `json:"range"`
	SelectionRange Range      `json:"selectionRange"`
	Data           interface{} `json:"data,omitempty"`
}

// CallHierarchyIncomingCall is one caller of a prepared item.
type CallHierarchyIncomingCall struct {
	From       CallHierarchyItem `json:"from"`
	FromRanges []Range           `json:"fromRanges"`
}

// CallHierarchyOutgoingCall is one callee of a prepared item.
type CallHierarchyOutgoingCall struct {
	To         CallHierarchyItem `json:"to"`
	FromRanges []Range           `json:"fromRanges"`
}

// TypeHierarchyItem identifies a type at a specific selection.
type TypeHierarchyItem struct {
	Name           string      `json:"name"`
	Kind           SymbolKind  `json:"kind"`
	Detail         string      `json:"detail,omitempty"`
	URI            string      `json:"uri"`
	Range          Range       `json:"range"`
	SelectionRange Range       `json:"selectionRange"`
	Data           interface{} `json:"data,omitempty"`
}

// TypeHierarchyItemParams wraps a single item for supertypes/subtypes
// requests.
type TypeHierarchyItemParams struct {
	Item TypeHierarchyItem `json:"item"`
}

// ServerInfo names and versions the child LSP server, as reported in its
// initialize result.
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

// InitializeResult is the child's reply to our initialize request.
type InitializeResult struct {
	Capabilities json.RawMessage `json:"capabilities"`
	ServerInfo   *ServerInfo     `json:"serverInfo,omitempty"`
}
