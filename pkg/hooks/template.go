package hooks

// Template returns a starter script for hookType.
func Template(hookType HookType) string {
	switch hookType {
	case PreDownload:
		return `// Pre-download hook
// Runs before an archive is checked and downloaded.
// Available variables:
// - fileName: string - archive name from the modlist
// - sizeBytes: int - expected size in bytes
// - digest: string - expected xxHash64 digest (base64)
// - gameId: int - Nexus game id
// - fileId: int - Nexus file id
// - path: string - local destination path
// - gameName: string - game name from the modlist
// - modId: int - Nexus mod id (0 when unknown)
// - modName: string - mod name (may be empty)
//
// Modules fmt, os, text and times can be imported.
//
// Assign skip = true to leave this archive alone,
// or assign err = "reason" to abort the whole run.

/*
if sizeBytes > 4 * 1024 * 1024 * 1024 {
    skip = true
}
*/`

	case PostDownload:
		return `// Post-download hook
// Runs after an archive was downloaded and verified.
// Available variables: same as the pre-download hook.
//
// Assign err = "reason" to abort the whole run.

/*
fmt := import("fmt")
fmt.println("finished ", fileName)
*/`

	default:
		return "// Unknown hook type: " + string(hookType)
	}
}
