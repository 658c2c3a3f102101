/*
Package status manages the files that kousei corrects in place.

	            +-------------+
	            |   Status    |
	            |  (Manager)  |
	            +------+------+
	                   |
	      +-----------+-----------+
	      |                       |
	+-----+-----+           +----+----+
	|   Files   |           |  Logs   |
	| (Storage) |           | (UI/UX) |
	+-----------+           +---------+

🎯 Purpose:
- Reads document files and remembers their checksum
- Writes corrections atomically with a .bak backup
- Refuses to overwrite a file that changed on disk in the meantime
- Restores a backup on request

🔄 Flow:
1. ReadFile loads the document and records its checksum
2. The correction pipeline runs against the in-memory text
3. Commit compares checksums, backs up, writes through a temp file and rename
4. TrackFile logs the outcome through zerolog

📝 Usage:

	mgr := status.New(dir, zerolog.Ctx(ctx))
	content, err := mgr.ReadFile(ctx, "draft.md")
	// ... correct content ...
	err = mgr.Commit(ctx, "draft.md", corrected)
*/
package status
