package storage

import (
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/bull/repo-ingest/internal/repo"
)

// pointNamespace scopes record IDs so they never collide with other UUIDv5 users.
var pointNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/bull/repo-ingest/points"))

// PointID returns the record identifier for one chunk of one ingestion run.
//
// The ID is a name-based (SHA-1, version 5) UUID over the repository, the
// file path, the chunk index and the run epoch. Within a run every chunk gets
// a distinct, reproducible ID; a new run uses a new epoch and therefore never
// reuses IDs from a previous run, which matches the full-refresh lifecycle of
// the collection.
func PointID(coord repo.Coordinate, filePath string, chunkIndex int, runEpoch int64) string {
	name := strings.Join([]string{
		coord.String(),
		filePath,
		strconv.Itoa(chunkIndex),
		strconv.FormatInt(runEpoch, 10),
	}, "\x00")
	return uuid.NewSHA1(pointNamespace, []byte(name)).String()
}
