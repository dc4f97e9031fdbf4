package constants

const (
	Version        = `0.1.0`
	AppName        = `mm`
	ConfigFile     = `cfg`
	ConfigFileType = `yaml`
	ConfigDir      = `/.metamatter/`

	NoteExt = `.md`
)

// Frontmatter keys with special meaning for the catalog and note creation.
const (
	KeyType       = `type`
	KeyNameFormat = `nameFormat`
	KeyDestFolder = `destFolder`
	KeyAddCreated = `addCreated`
	KeyCreated    = `created`
)

// TimestampLayout renders as YYMMDD@HHmm.
const TimestampLayout = `060102@1504`

const (
	DefaultTemplateFolder = `Templates`
	DefaultDebounceMillis = 250
	DefaultLogLevel       = `info`
	DefaultLogFormat      = `text`
)

var DefaultWatchIgnore = []string{".obsidian/**", ".git/**", ".trash/**"}
