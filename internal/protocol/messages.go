package protocol

import "smeltingmetal.dev/internal/sim/catalogs"

// HELLO (host -> engine)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	HostName        string `json:"host_name"`
	HostVersion     string `json:"host_version,omitempty"`
}

// WELCOME (engine -> host)
type WelcomeMsg struct {
	Type            string         `json:"type"`
	ProtocolVersion string         `json:"protocol_version"`
	SessionID       string         `json:"session_id"`
	Namespace       string         `json:"namespace"`
	Metals          []string       `json:"metals"`
	Catalogs        CatalogDigests `json:"catalogs"`
}

type CatalogDigests struct {
	ItemPalette   DigestRef `json:"item_palette"`
	BlockPalette  DigestRef `json:"block_palette"`
	RecipesDigest string    `json:"recipes_digest"`
	ConfigDigest  string    `json:"config_digest"`
}

type DigestRef struct {
	Digest string `json:"digest"`
	Count  int    `json:"count"`
}

// EVENT (host -> engine): one lifecycle trigger. Recipes carries the fresh host
// table on datapack reloads; Config carries a replacement yaml document.
type EventMsg struct {
	Type            string               `json:"type"`
	ProtocolVersion string               `json:"protocol_version"`
	ReqID           string               `json:"req_id"`
	Trigger         string               `json:"trigger"`
	Recipes         []catalogs.RecipeDef `json:"recipes,omitempty"`
	Config          string               `json:"config,omitempty"`
}

// REPORT (engine -> host)
type ReportMsg struct {
	Type            string        `json:"type"`
	ProtocolVersion string        `json:"protocol_version"`
	ReqID           string        `json:"req_id"`
	PassID          string        `json:"pass_id,omitempty"`
	Trigger         string        `json:"trigger"`
	Ran             bool          `json:"ran"`
	Added           int           `json:"added"`
	Removed         int           `json:"removed"`
	Unchanged       int           `json:"unchanged"`
	Skipped         int           `json:"skipped"`
	Failures        []string      `json:"failures,omitempty"`
	TableSize       int           `json:"table_size"`
	Mutations       []MutationRef `json:"mutations,omitempty"`
}

type MutationRef struct {
	Op       string `json:"op"`
	RecipeID string `json:"recipe_id"`
	Rule     string `json:"rule"`
	Content  string `json:"content,omitempty"`
	Shape    string `json:"shape,omitempty"`
}

type ErrorMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ReqID           string `json:"req_id,omitempty"`
	Code            string `json:"code"`
	Message         string `json:"message"`
}
