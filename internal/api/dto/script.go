package dto

import "mssql-script/internal/script"

type ScriptRequest struct {
	Script    string         `json:"script"`
	Params    map[string]any `json:"params,omitempty"`
	Output    string         `json:"output,omitempty"`
	Separator string         `json:"separator,omitempty"`
	CheckMode bool           `json:"checkMode,omitempty"`
}

type ScriptResponse struct {
	Queries      []string            `json:"queries"`
	QueryResults script.QueryResults `json:"queryResults,omitempty"`
	Changed      bool                `json:"changed"`
}
