package model

// CreateBoxRequest carries the caller's wishes for a new box. Image names
// either an alias known to the alias store or a literal image reference;
// everything else is optional and defaulted by the lifecycle controller.
type CreateBoxRequest struct {
	Image        string `json:"image" binding:"required"`
	Name         string `json:"name"`
	InstanceType string `json:"instance_type"`
	TTL          int64  `json:"ttl"`
	Connect      bool   `json:"connect"`
}

// CreateAliasRequest registers one alias -> image reference mapping.
type CreateAliasRequest struct {
	Alias   string `json:"alias" binding:"required"`
	ImageID string `json:"image_id" binding:"required"`
}

// ImageAlias is a stored alias row.
type ImageAlias struct {
	Alias   string `json:"alias"`
	ImageID string `json:"image_id"`
	User    string `json:"user,omitempty"`
}

// AliasListResponse is the wire shape of the alias listing endpoint. The
// mapping keys are alias names.
type AliasListResponse struct {
	ImageAliases map[string]string `json:"image_aliases"`
}
