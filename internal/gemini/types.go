package gemini

// Conversation roles as the generateContent API names them.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Turn is one prior message in the running conversation.
type Turn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// Wire types for the generateContent REST body.

type inlineData struct {
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"`
}

type fileData struct {
	MIMEType string `json:"mime_type"`
	FileURI  string `json:"file_uri"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
	FileData   *fileData   `json:"file_data,omitempty"`
}

type content struct {
	Role  string `json:"role"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	MaxOutputTokens int `json:"max_output_tokens"`
}

// The API accepts a bare part object here, not a list.
type systemInstruction struct {
	Parts part `json:"parts"`
}

type generateBody struct {
	GenerationConfig  generationConfig  `json:"generationConfig"`
	SystemInstruction systemInstruction `json:"system_instruction"`
	Contents          []content         `json:"contents"`
}

type generateResult struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

type uploadResult struct {
	File struct {
		URI string `json:"uri"`
	} `json:"file"`
}
