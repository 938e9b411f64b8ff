package domain

const (
	DefaultProjectName = "no-project"
	DefaultLanguage    = "plaintext"
)

// ActivityContext identifies what the developer is working on.
type ActivityContext struct {
	ProjectName string  `json:"projectName"`
	ProjectPath *string `json:"projectPath"`
	FilePath    *string `json:"filePath"`
	Language    string  `json:"language"`
}

// Normalize fills in the sentinel project and language names and treats
// empty paths as absent.
func (c ActivityContext) Normalize() ActivityContext {
	if c.ProjectName == "" {
		c.ProjectName = DefaultProjectName
	}
	if c.Language == "" {
		c.Language = DefaultLanguage
	}
	if c.ProjectPath != nil && *c.ProjectPath == "" {
		c.ProjectPath = nil
	}
	if c.FilePath != nil && *c.FilePath == "" {
		c.FilePath = nil
	}
	return c
}

// Equal reports whether two contexts describe the same project, file and language.
func (c ActivityContext) Equal(o ActivityContext) bool {
	return c.ProjectName == o.ProjectName &&
		c.Language == o.Language &&
		equalPtr(c.ProjectPath, o.ProjectPath) &&
		equalPtr(c.FilePath, o.FilePath)
}

// Redact drops the paths the user has not opted into sharing.
func (c ActivityContext) Redact(includeProjectPath, includeFilePath bool) ActivityContext {
	if !includeProjectPath {
		c.ProjectPath = nil
	}
	if !includeFilePath {
		c.FilePath = nil
	}
	return c
}

func equalPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// StringPtr returns a pointer to s, or nil when s is empty.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
