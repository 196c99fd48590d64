package store

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/audfs/creator-node/internal/domain"
	"github.com/audfs/creator-node/internal/store/schema"
)

// =============================================================================
// Test Data Builders
// =============================================================================

// buildTestWallet derives a distinct canonical wallet per test case
func buildTestWallet(n int) string {
	return fmt.Sprintf("0x%040x", n)
}

// buildMetadataFileInput creates a metadata file commit input
func buildMetadataFileInput(wallet string, seq int) CreateMetadataFileInput {
	sourceFile := fmt.Sprintf("metadata_%d.json", seq)
	multihash := fmt.Sprintf("QmMeta%040d", seq)
	return CreateMetadataFileInput{
		WalletPublicKey: wallet,
		Multihash:       multihash,
		StoragePath:     "/file_storage/" + multihash,
		SourceFile:      &sourceFile,
	}
}

// buildTrackContentInput creates an audio blob commit input
func buildTrackContentInput(wallet string, seq int, trackBlockchainID string) CreateTrackContentInput {
	sourceFile := fmt.Sprintf("segment_%d.ts", seq)
	multihash := fmt.Sprintf("QmAudio%039d", seq)
	return CreateTrackContentInput{
		WalletPublicKey:   wallet,
		Multihash:         multihash,
		StoragePath:       "/file_storage/" + multihash,
		SourceFile:        &sourceFile,
		TrackBlockchainID: &trackBlockchainID,
	}
}

// buildImportClockRecord creates a clock record row for an import bundle.
// The owning user is rewritten by ApplyImport.
func buildImportClockRecord(clock int64, kind schema.SourceKind) schema.ClockRecord {
	return schema.ClockRecord{
		Clock:      clock,
		SourceKind: kind,
	}
}

// buildImportFile creates a metadata file row for an import bundle
func buildImportFile(clock int64, multihash string) schema.File {
	return schema.File{
		FileUUID:    uuid.New(),
		Clock:       clock,
		Multihash:   multihash,
		StoragePath: "/file_storage/" + multihash,
		Type:        schema.FileTypeMetadata,
	}
}

// =============================================================================
// Test: reads on an empty store
// =============================================================================

func testEmptyReads(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("unknown wallet returns nil without error", func(t *testing.T) {
		user, err := store.GetUserByWallet(ctx, buildTestWallet(100))
		require.NoError(t, err)
		assert.Nil(t, user)
	})

	t.Run("unknown file uuid returns nil without error", func(t *testing.T) {
		file, err := store.GetFileByUUID(ctx, uuid.New())
		require.NoError(t, err)
		assert.Nil(t, file)
	})

	t.Run("unknown multihash returns nil without error", func(t *testing.T) {
		file, err := store.GetFileByMultihash(ctx, "QmUnknownMultihash")
		require.NoError(t, err)
		assert.Nil(t, file)
	})

	t.Run("unknown dir entry returns nil without error", func(t *testing.T) {
		file, err := store.GetDirEntry(ctx, "QmUnknownDir", "original.jpg")
		require.NoError(t, err)
		assert.Nil(t, file)
	})
}

// =============================================================================
// Test: CreateMetadataFile
// =============================================================================

func testCreateMetadataFile(t *testing.T, store Store) {
	ctx := context.Background()
	wallet := buildTestWallet(101)

	t.Run("first write creates the user at clock 1", func(t *testing.T) {
		input := buildMetadataFileInput(wallet, 1)

		file, err := store.CreateMetadataFile(ctx, input)
		require.NoError(t, err)
		require.NotNil(t, file)
		assert.Equal(t, int64(1), file.Clock)
		assert.Equal(t, input.Multihash, file.Multihash)
		assert.Equal(t, input.StoragePath, file.StoragePath)
		assert.Equal(t, schema.FileTypeMetadata, file.Type)
		require.NotNil(t, file.SourceFile)
		assert.Equal(t, *input.SourceFile, *file.SourceFile)

		user, err := store.GetUserByWallet(ctx, wallet)
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, int64(1), user.Clock)
		assert.Equal(t, int64(0), user.LatestBlockNumber)
		assert.Equal(t, file.CNodeUserUUID, user.CNodeUserUUID)
	})

	t.Run("file is readable by uuid and by multihash", func(t *testing.T) {
		input := buildMetadataFileInput(wallet, 2)

		created, err := store.CreateMetadataFile(ctx, input)
		require.NoError(t, err)

		byUUID, err := store.GetFileByUUID(ctx, created.FileUUID)
		require.NoError(t, err)
		require.NotNil(t, byUUID)
		assert.Equal(t, created.Multihash, byUUID.Multihash)

		byHash, err := store.GetFileByMultihash(ctx, input.Multihash)
		require.NoError(t, err)
		require.NotNil(t, byHash)
		assert.Equal(t, created.FileUUID, byHash.FileUUID)
	})

	t.Run("writes advance the clock contiguously", func(t *testing.T) {
		file, err := store.CreateMetadataFile(ctx, buildMetadataFileInput(wallet, 3))
		require.NoError(t, err)
		assert.Equal(t, int64(3), file.Clock)

		exports, err := store.FetchExportUsers(ctx, []string{wallet}, 1, 100)
		require.NoError(t, err)
		require.Len(t, exports, 1)
		require.Len(t, exports[0].ClockRecords, 3)
		for i, record := range exports[0].ClockRecords {
			assert.Equal(t, int64(i+1), record.Clock)
			assert.Equal(t, schema.SourceKindFile, record.SourceKind)
		}
	})
}

// =============================================================================
// Test: CreateAudiusUser
// =============================================================================

func testCreateAudiusUser(t *testing.T, store Store) {
	ctx := context.Background()
	wallet := buildTestWallet(102)

	metaFile, err := store.CreateMetadataFile(ctx, buildMetadataFileInput(wallet, 1))
	require.NoError(t, err)

	t.Run("revision commits under the next clock value", func(t *testing.T) {
		blockchainID := "41"
		revision, err := store.CreateAudiusUser(ctx, CreateAudiusUserInput{
			WalletPublicKey:  wallet,
			BlockchainID:     &blockchainID,
			BlockNumber:      500,
			MetadataFileUUID: &metaFile.FileUUID,
			MetadataJSON:     datatypes.JSON(`{"handle":"alice"}`),
		})
		require.NoError(t, err)
		require.NotNil(t, revision)
		assert.Equal(t, int64(2), revision.Clock)
		require.NotNil(t, revision.BlockchainID)
		assert.Equal(t, blockchainID, *revision.BlockchainID)
		require.NotNil(t, revision.MetadataFileUUID)
		assert.Equal(t, metaFile.FileUUID, *revision.MetadataFileUUID)

		user, err := store.GetUserByWallet(ctx, wallet)
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, int64(2), user.Clock)
		assert.Equal(t, int64(500), user.LatestBlockNumber)
	})

	t.Run("latest block number never regresses", func(t *testing.T) {
		_, err := store.CreateAudiusUser(ctx, CreateAudiusUserInput{
			WalletPublicKey: wallet,
			BlockNumber:     400,
			MetadataJSON:    datatypes.JSON(`{"handle":"alice","bio":"updated"}`),
		})
		require.NoError(t, err)

		user, err := store.GetUserByWallet(ctx, wallet)
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, int64(3), user.Clock)
		assert.Equal(t, int64(500), user.LatestBlockNumber)
	})

	t.Run("clock ledger records the revision kind", func(t *testing.T) {
		exports, err := store.FetchExportUsers(ctx, []string{wallet}, 1, 100)
		require.NoError(t, err)
		require.Len(t, exports, 1)
		require.Len(t, exports[0].ClockRecords, 3)
		assert.Equal(t, schema.SourceKindFile, exports[0].ClockRecords[0].SourceKind)
		assert.Equal(t, schema.SourceKindUserMeta, exports[0].ClockRecords[1].SourceKind)
		assert.Equal(t, schema.SourceKindUserMeta, exports[0].ClockRecords[2].SourceKind)
	})
}

// =============================================================================
// Test: GetLatestAudiusUser
// =============================================================================

func testGetLatestAudiusUser(t *testing.T, store Store) {
	ctx := context.Background()
	wallet := buildTestWallet(111)

	t.Run("user without metadata returns nil without error", func(t *testing.T) {
		_, err := store.CreateMetadataFile(ctx, buildMetadataFileInput(wallet, 1))
		require.NoError(t, err)

		user, err := store.GetUserByWallet(ctx, wallet)
		require.NoError(t, err)
		require.NotNil(t, user)

		latest, err := store.GetLatestAudiusUser(ctx, user.CNodeUserUUID)
		require.NoError(t, err)
		assert.Nil(t, latest)
	})

	t.Run("newest revision wins", func(t *testing.T) {
		user, err := store.GetUserByWallet(ctx, wallet)
		require.NoError(t, err)
		require.NotNil(t, user)

		_, err = store.CreateAudiusUser(ctx, CreateAudiusUserInput{
			WalletPublicKey: wallet,
			BlockNumber:     100,
			MetadataJSON:    datatypes.JSON(`{"handle":"carol"}`),
		})
		require.NoError(t, err)

		second, err := store.CreateAudiusUser(ctx, CreateAudiusUserInput{
			WalletPublicKey: wallet,
			BlockNumber:     101,
			MetadataJSON:    datatypes.JSON(`{"handle":"carol","creator_node_endpoint":"https://cn1.example.com,https://cn2.example.com"}`),
		})
		require.NoError(t, err)

		latest, err := store.GetLatestAudiusUser(ctx, user.CNodeUserUUID)
		require.NoError(t, err)
		require.NotNil(t, latest)
		assert.Equal(t, second.AudiusUserUUID, latest.AudiusUserUUID)
		assert.Equal(t, second.Clock, latest.Clock)
	})

	t.Run("unknown user returns nil without error", func(t *testing.T) {
		latest, err := store.GetLatestAudiusUser(ctx, uuid.New())
		require.NoError(t, err)
		assert.Nil(t, latest)
	})
}

// =============================================================================
// Test: CreateTrack and CreateTrackContent
// =============================================================================

func testCreateTrack(t *testing.T, store Store) {
	ctx := context.Background()
	wallet := buildTestWallet(103)
	trackBlockchainID := "7001"

	t.Run("audio blob commits as a track file", func(t *testing.T) {
		file, err := store.CreateTrackContent(ctx, buildTrackContentInput(wallet, 1, trackBlockchainID))
		require.NoError(t, err)
		require.NotNil(t, file)
		assert.Equal(t, int64(1), file.Clock)
		assert.Equal(t, schema.FileTypeAudio, file.Type)
		require.NotNil(t, file.TrackBlockchainID)
		assert.Equal(t, trackBlockchainID, *file.TrackBlockchainID)
		assert.True(t, file.IsTrackFile())
	})

	t.Run("track revision commits under the next clock value", func(t *testing.T) {
		metaFile, err := store.CreateMetadataFile(ctx, buildMetadataFileInput(wallet, 2))
		require.NoError(t, err)
		assert.Equal(t, int64(2), metaFile.Clock)

		track, err := store.CreateTrack(ctx, CreateTrackInput{
			WalletPublicKey:  wallet,
			BlockchainID:     &trackBlockchainID,
			BlockNumber:      901,
			MetadataFileUUID: &metaFile.FileUUID,
			MetadataJSON:     datatypes.JSON(`{"title":"first take"}`),
		})
		require.NoError(t, err)
		require.NotNil(t, track)
		assert.Equal(t, int64(3), track.Clock)

		user, err := store.GetUserByWallet(ctx, wallet)
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, int64(3), user.Clock)
		assert.Equal(t, int64(901), user.LatestBlockNumber)
	})

	t.Run("revisions of the same track share the blockchain id", func(t *testing.T) {
		track, err := store.CreateTrack(ctx, CreateTrackInput{
			WalletPublicKey: wallet,
			BlockchainID:    &trackBlockchainID,
			BlockNumber:     902,
			MetadataJSON:    datatypes.JSON(`{"title":"second take"}`),
		})
		require.NoError(t, err)
		assert.Equal(t, int64(4), track.Clock)

		exports, err := store.FetchExportUsers(ctx, []string{wallet}, 1, 100)
		require.NoError(t, err)
		require.Len(t, exports, 1)
		assert.Len(t, exports[0].Tracks, 2)
	})
}

// =============================================================================
// Test: CreateImageDirectory
// =============================================================================

func testCreateImageDirectory(t *testing.T, store Store) {
	ctx := context.Background()
	wallet := buildTestWallet(104)
	dirMultihash := "QmDirCoverArt000000000000000000000000000000000"
	sourceFile := "cover.jpg"

	// Entries arrive unsorted; clock assignment follows listing order.
	input := CreateImageDirectoryInput{
		WalletPublicKey: wallet,
		DirMultihash:    dirMultihash,
		DirStoragePath:  "/file_storage/" + dirMultihash,
		SourceFile:      &sourceFile,
		Entries: []ImageDirEntry{
			{FileName: "original.jpg", Multihash: "QmImg4", StoragePath: "/file_storage/" + dirMultihash + "/QmImg4"},
			{FileName: "150x150.jpg", Multihash: "QmImg1", StoragePath: "/file_storage/" + dirMultihash + "/QmImg1"},
			{FileName: "640x.jpg", Multihash: "QmImg3", StoragePath: "/file_storage/" + dirMultihash + "/QmImg3"},
			{FileName: "480x480.jpg", Multihash: "QmImg2", StoragePath: "/file_storage/" + dirMultihash + "/QmImg2"},
		},
	}

	result, err := store.CreateImageDirectory(ctx, input)
	require.NoError(t, err)
	require.NotNil(t, result)

	t.Run("dir row commits first, entries consume consecutive clocks", func(t *testing.T) {
		assert.Equal(t, int64(1), result.Dir.Clock)
		assert.Equal(t, schema.FileTypeDir, result.Dir.Type)
		assert.Equal(t, dirMultihash, result.Dir.Multihash)

		require.Len(t, result.Entries, 4)
		wantNames := []string{"150x150.jpg", "480x480.jpg", "640x.jpg", "original.jpg"}
		for i, entry := range result.Entries {
			assert.Equal(t, int64(i+2), entry.Clock)
			assert.Equal(t, schema.FileTypeImage, entry.Type)
			require.NotNil(t, entry.FileName)
			assert.Equal(t, wantNames[i], *entry.FileName)
			require.NotNil(t, entry.DirMultihash)
			assert.Equal(t, dirMultihash, *entry.DirMultihash)
		}

		user, err := store.GetUserByWallet(ctx, wallet)
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, int64(5), user.Clock)
	})

	t.Run("entries resolve by directory and name", func(t *testing.T) {
		entry, err := store.GetDirEntry(ctx, dirMultihash, "original.jpg")
		require.NoError(t, err)
		require.NotNil(t, entry)
		assert.Equal(t, "QmImg4", entry.Multihash)

		entries, err := store.GetDirEntries(ctx, dirMultihash)
		require.NoError(t, err)
		require.Len(t, entries, 4)
		assert.Equal(t, "150x150.jpg", *entries[0].FileName)
		assert.Equal(t, "original.jpg", *entries[3].FileName)
	})
}

// =============================================================================
// Test: FetchExportUsers
// =============================================================================

func testFetchExportUsers(t *testing.T, store Store) {
	ctx := context.Background()
	walletA := buildTestWallet(105)
	walletB := buildTestWallet(106)

	for seq := 1; seq <= 4; seq++ {
		_, err := store.CreateMetadataFile(ctx, buildMetadataFileInput(walletA, seq))
		require.NoError(t, err)
	}
	_, err := store.CreateMetadataFile(ctx, buildMetadataFileInput(walletB, 10))
	require.NoError(t, err)

	t.Run("full window returns every row ordered by clock", func(t *testing.T) {
		exports, err := store.FetchExportUsers(ctx, []string{walletA, walletB}, 1, 100)
		require.NoError(t, err)
		require.Len(t, exports, 2)

		byWallet := map[string]*ExportUserData{}
		for _, export := range exports {
			byWallet[export.User.WalletPublicKey] = export
		}

		exportA := byWallet[walletA]
		require.NotNil(t, exportA)
		assert.Equal(t, int64(4), exportA.LocalClockMax)
		require.Len(t, exportA.ClockRecords, 4)
		require.Len(t, exportA.Files, 4)
		for i := 1; i < len(exportA.Files); i++ {
			assert.Greater(t, exportA.Files[i].Clock, exportA.Files[i-1].Clock)
		}

		exportB := byWallet[walletB]
		require.NotNil(t, exportB)
		assert.Equal(t, int64(1), exportB.LocalClockMax)
		require.Len(t, exportB.Files, 1)
	})

	t.Run("partial window filters rows but reports the true clock", func(t *testing.T) {
		exports, err := store.FetchExportUsers(ctx, []string{walletA}, 2, 3)
		require.NoError(t, err)
		require.Len(t, exports, 1)

		export := exports[0]
		assert.Equal(t, int64(4), export.LocalClockMax)
		require.Len(t, export.ClockRecords, 2)
		assert.Equal(t, int64(2), export.ClockRecords[0].Clock)
		assert.Equal(t, int64(3), export.ClockRecords[1].Clock)
		require.Len(t, export.Files, 2)
	})

	t.Run("unknown wallets are absent from the result", func(t *testing.T) {
		exports, err := store.FetchExportUsers(ctx, []string{walletA, buildTestWallet(107)}, 1, 100)
		require.NoError(t, err)
		require.Len(t, exports, 1)
		assert.Equal(t, walletA, exports[0].User.WalletPublicKey)
	})

	t.Run("empty wallet list returns an empty result", func(t *testing.T) {
		exports, err := store.FetchExportUsers(ctx, nil, 1, 100)
		require.NoError(t, err)
		assert.Empty(t, exports)
	})
}

// =============================================================================
// Test: ApplyImport
// =============================================================================

func testApplyImport(t *testing.T, store Store) {
	ctx := context.Background()
	wallet := buildTestWallet(108)
	sourceUserUUID := uuid.New()

	t.Run("first import creates the user with the source identity", func(t *testing.T) {
		bundle := ImportBundle{
			WalletPublicKey:    wallet,
			SourceUserUUID:     sourceUserUUID,
			LatestBlockNumber:  300,
			Clock:              3,
			ExpectedLocalClock: -1,
			ClockRecords: []schema.ClockRecord{
				buildImportClockRecord(1, schema.SourceKindFile),
				buildImportClockRecord(2, schema.SourceKindFile),
				buildImportClockRecord(3, schema.SourceKindUserMeta),
			},
			Files: []schema.File{
				buildImportFile(1, "QmImportA1"),
				buildImportFile(2, "QmImportA2"),
			},
			AudiusUsers: []schema.AudiusUser{
				{
					AudiusUserUUID: uuid.New(),
					Clock:          3,
					MetadataJSON:   datatypes.JSON(`{"handle":"bob"}`),
				},
			},
		}

		require.NoError(t, store.ApplyImport(ctx, bundle))

		user, err := store.GetUserByWallet(ctx, wallet)
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, sourceUserUUID, user.CNodeUserUUID)
		assert.Equal(t, int64(3), user.Clock)
		assert.Equal(t, int64(300), user.LatestBlockNumber)

		exports, err := store.FetchExportUsers(ctx, []string{wallet}, 1, 100)
		require.NoError(t, err)
		require.Len(t, exports, 1)
		assert.Len(t, exports[0].ClockRecords, 3)
		assert.Len(t, exports[0].Files, 2)
		assert.Len(t, exports[0].AudiusUsers, 1)
		for _, file := range exports[0].Files {
			assert.Equal(t, sourceUserUUID, file.CNodeUserUUID)
		}
	})

	t.Run("appended window extends the ledger", func(t *testing.T) {
		trackBlockchainID := "8802"
		trackFile := schema.File{
			FileUUID:          uuid.New(),
			Clock:             4,
			Multihash:         "QmImportSeg1",
			StoragePath:       "/file_storage/QmImportSeg1",
			Type:              schema.FileTypeAudio,
			TrackBlockchainID: &trackBlockchainID,
		}
		bundle := ImportBundle{
			WalletPublicKey:    wallet,
			SourceUserUUID:     sourceUserUUID,
			LatestBlockNumber:  310,
			Clock:              5,
			ExpectedLocalClock: 3,
			ClockRecords: []schema.ClockRecord{
				buildImportClockRecord(4, schema.SourceKindFile),
				buildImportClockRecord(5, schema.SourceKindTrack),
			},
			Files: []schema.File{trackFile},
			Tracks: []schema.Track{
				{
					TrackUUID:    uuid.New(),
					Clock:        5,
					BlockchainID: &trackBlockchainID,
					MetadataJSON: datatypes.JSON(`{"title":"imported"}`),
				},
			},
		}

		require.NoError(t, store.ApplyImport(ctx, bundle))

		user, err := store.GetUserByWallet(ctx, wallet)
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, int64(5), user.Clock)
		assert.Equal(t, int64(310), user.LatestBlockNumber)

		exports, err := store.FetchExportUsers(ctx, []string{wallet}, 1, 100)
		require.NoError(t, err)
		require.Len(t, exports, 1)
		assert.Len(t, exports[0].ClockRecords, 5)
		assert.Len(t, exports[0].Tracks, 1)
		assert.Len(t, exports[0].Files, 3)
	})

	t.Run("stale validation state is rejected", func(t *testing.T) {
		bundle := ImportBundle{
			WalletPublicKey:    wallet,
			SourceUserUUID:     sourceUserUUID,
			Clock:              6,
			ExpectedLocalClock: 3,
			ClockRecords: []schema.ClockRecord{
				buildImportClockRecord(6, schema.SourceKindFile),
			},
			Files: []schema.File{buildImportFile(6, "QmImportStale")},
		}

		err := store.ApplyImport(ctx, bundle)
		require.ErrorIs(t, err, domain.ErrClockConflict)

		// Nothing from the rejected window may be visible.
		user, err := store.GetUserByWallet(ctx, wallet)
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, int64(5), user.Clock)
		file, err := store.GetFileByMultihash(ctx, "QmImportStale")
		require.NoError(t, err)
		assert.Nil(t, file)
	})

	t.Run("overlapping window re-applies without duplicating rows", func(t *testing.T) {
		bundle := ImportBundle{
			WalletPublicKey:    wallet,
			SourceUserUUID:     sourceUserUUID,
			LatestBlockNumber:  310,
			Clock:              6,
			ExpectedLocalClock: 5,
			ClockRecords: []schema.ClockRecord{
				buildImportClockRecord(4, schema.SourceKindFile),
				buildImportClockRecord(5, schema.SourceKindTrack),
				buildImportClockRecord(6, schema.SourceKindFile),
			},
			Files: []schema.File{
				buildImportFile(6, "QmImportA6"),
			},
		}

		require.NoError(t, store.ApplyImport(ctx, bundle))

		exports, err := store.FetchExportUsers(ctx, []string{wallet}, 1, 100)
		require.NoError(t, err)
		require.Len(t, exports, 1)
		assert.Equal(t, int64(6), exports[0].LocalClockMax)
		assert.Len(t, exports[0].ClockRecords, 6)
	})

	t.Run("user vanished after validation is rejected", func(t *testing.T) {
		bundle := ImportBundle{
			WalletPublicKey:    buildTestWallet(109),
			SourceUserUUID:     uuid.New(),
			Clock:              1,
			ExpectedLocalClock: 0,
			ClockRecords: []schema.ClockRecord{
				buildImportClockRecord(1, schema.SourceKindFile),
			},
			Files: []schema.File{buildImportFile(1, "QmImportGhost")},
		}

		err := store.ApplyImport(ctx, bundle)
		require.ErrorIs(t, err, domain.ErrClockConflict)
	})
}

// =============================================================================
// Test: local writes after an import continue the imported ledger
// =============================================================================

func testWriteAfterImport(t *testing.T, store Store) {
	ctx := context.Background()
	wallet := buildTestWallet(110)

	bundle := ImportBundle{
		WalletPublicKey:    wallet,
		SourceUserUUID:     uuid.New(),
		Clock:              2,
		ExpectedLocalClock: -1,
		ClockRecords: []schema.ClockRecord{
			buildImportClockRecord(1, schema.SourceKindFile),
			buildImportClockRecord(2, schema.SourceKindFile),
		},
		Files: []schema.File{
			buildImportFile(1, "QmHandoff1"),
			buildImportFile(2, "QmHandoff2"),
		},
	}
	require.NoError(t, store.ApplyImport(ctx, bundle))

	file, err := store.CreateMetadataFile(ctx, buildMetadataFileInput(wallet, 3))
	require.NoError(t, err)
	assert.Equal(t, int64(3), file.Clock)

	exports, err := store.FetchExportUsers(ctx, []string{wallet}, 1, 100)
	require.NoError(t, err)
	require.Len(t, exports, 1)
	require.Len(t, exports[0].ClockRecords, 3)
	for i, record := range exports[0].ClockRecords {
		assert.Equal(t, int64(i+1), record.Clock)
	}
}

// =============================================================================
// Suite runner
// =============================================================================

func RunStoreTests(t *testing.T, initDB func(t *testing.T) Store, cleanupDB func(t *testing.T)) {
	tests := []struct {
		name string
		fn   func(*testing.T, Store)
	}{
		{"EmptyReads", testEmptyReads},
		{"CreateMetadataFile", testCreateMetadataFile},
		{"CreateAudiusUser", testCreateAudiusUser},
		{"GetLatestAudiusUser", testGetLatestAudiusUser},
		{"CreateTrack", testCreateTrack},
		{"CreateImageDirectory", testCreateImageDirectory},
		{"FetchExportUsers", testFetchExportUsers},
		{"ApplyImport", testApplyImport},
		{"WriteAfterImport", testWriteAfterImport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := initDB(t)
			defer cleanupDB(t)
			tt.fn(t, store)
		})
	}
}
