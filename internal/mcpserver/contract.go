package mcpserver

// LinkSyntax describes the link and embed forms the exporter recognizes in
// vault notes and how each one appears in exported output.
const LinkSyntax = `# mdexport Link Syntax

Links inside fenced code blocks and inline code spans are never touched.
Targets starting with http:// or https:// are left as written.

## Recognized forms

| Form | Example | Kind |
|------|---------|------|
| Wiki image embed | ` + "`" + `![[photo.png]]` + "`" + `, ` + "`" + `![[photo.png|300]]` + "`" + ` | image |
| Markdown image | ` + "`" + `![alt](pics/photo%20one.png)` + "`" + ` | image |
| Note embed | ` + "`" + `![[Other note]]` + "`" + `, ` + "`" + `![[Other note#Heading]]` + "`" + `, ` + "`" + `![[Other note#^block]]` + "`" + ` | embed |
| Wikilink | ` + "`" + `[[Other note]]` + "`" + `, ` + "`" + `[[Other note#Heading|shown text]]` + "`" + ` | link |

## Resolution

1. The target is percent-decoded and cut at the first ` + "`" + `|` + "`" + `; leading ` + "`" + `../` + "`" + ` segments are dropped.
2. An exact vault path wins (with or without ` + "`" + `.md` + "`" + `), first from the vault root, then from the note's folder.
3. Otherwise the basename is matched anywhere in the vault. More than one match is ambiguous and
   the link falls back to a path relative to the note.

## Output

- Image links point into the configured attachment directory; the asset is copied there.
- With ` + "`" + `gfm` + "`" + ` on, image embeds become ` + "`" + `![](path)` + "`" + ` (or the configured image format).
- With ` + "`" + `file_name_encode` + "`" + ` on, asset files are named by the MD5 of their link name.
- Note embeds are replaced by the embedded note's text, one level deep.
- Wikilinks are converted to ` + "`" + `[text](note.md#heading)` + "`" + ` or reduced to their text, per settings.
`
