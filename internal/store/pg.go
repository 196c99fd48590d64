package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/audfs/creator-node/internal/domain"
	"github.com/audfs/creator-node/internal/store/schema"
)

type pgStore struct {
	db *gorm.DB
}

// NewPGStore creates a new PostgreSQL store instance. The gorm connection
// must be opened with TranslateError so duplicate-key violations surface as
// gorm.ErrDuplicatedKey.
func NewPGStore(db *gorm.DB) Store {
	return &pgStore{db: db}
}

// AutoMigrate creates or updates the node's tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&schema.CNodeUser{},
		&schema.ClockRecord{},
		&schema.AudiusUser{},
		&schema.Track{},
		&schema.File{},
	)
}

// ConfigureConnectionPool configures the connection pool settings for a GORM
// database connection.
func ConfigureConnectionPool(db *gorm.DB, maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime =
		NormalizeConnectionPoolSettings(maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime)

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	return nil
}

// NormalizeConnectionPoolSettings applies defaults and clamps pool settings
// into safe values.
//
// Defaults (when zero):
//   - MaxOpenConns: 20
//   - MaxIdleConns: 5
//   - ConnMaxLifetime: 5 minutes
//   - ConnMaxIdleTime: 10 minutes
func NormalizeConnectionPoolSettings(maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) (int, int, time.Duration, time.Duration) {
	if maxOpenConns == 0 {
		maxOpenConns = 20
	}
	if maxIdleConns == 0 {
		maxIdleConns = 5
	}
	if connMaxLifetime == 0 {
		connMaxLifetime = 5 * time.Minute
	}
	if connMaxIdleTime == 0 {
		connMaxIdleTime = 10 * time.Minute
	}

	// database/sql treats MaxIdleConns above MaxOpenConns as MaxOpenConns
	if maxIdleConns > maxOpenConns {
		maxIdleConns = maxOpenConns
	}

	return maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime
}

// calculateSafeBatchSize computes a bulk-insert batch size that stays under
// PostgreSQL's 65535-parameter limit for the extended protocol, keeping
// headroom for ON CONFLICT clauses and gorm bookkeeping.
func calculateSafeBatchSize(totalRecords int, fieldsPerRecord int) int {
	const maxParams = 65535
	const totalHeadroom = 1000

	availableParams := maxParams - totalHeadroom
	safeBatchSize := max(availableParams/fieldsPerRecord, 1)

	if safeBatchSize > totalRecords {
		return totalRecords
	}

	return safeBatchSize
}

// GetUserByWallet retrieves a user by wallet public key
func (s *pgStore) GetUserByWallet(ctx context.Context, wallet string) (*schema.CNodeUser, error) {
	var user schema.CNodeUser
	err := s.db.WithContext(ctx).Where("wallet_public_key = ?", wallet).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// GetFileByUUID retrieves a file record by its primary key
func (s *pgStore) GetFileByUUID(ctx context.Context, fileUUID uuid.UUID) (*schema.File, error) {
	var file schema.File
	err := s.db.WithContext(ctx).Where("file_uuid = ?", fileUUID).First(&file).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get file: %w", err)
	}
	return &file, nil
}

// GetFileByMultihash retrieves a file record by content address
func (s *pgStore) GetFileByMultihash(ctx context.Context, multihash string) (*schema.File, error) {
	var file schema.File
	err := s.db.WithContext(ctx).
		Where("multihash = ?", multihash).
		Order("created_at ASC").
		First(&file).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get file by multihash: %w", err)
	}
	return &file, nil
}

// GetDirEntry retrieves the entry of an image directory by name
func (s *pgStore) GetDirEntry(ctx context.Context, dirMultihash, fileName string) (*schema.File, error) {
	var file schema.File
	err := s.db.WithContext(ctx).
		Where("dir_multihash = ? AND file_name = ?", dirMultihash, fileName).
		Order("created_at ASC").
		First(&file).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get dir entry: %w", err)
	}
	return &file, nil
}

// GetDirEntries retrieves all entries of an image directory
func (s *pgStore) GetDirEntries(ctx context.Context, dirMultihash string) ([]schema.File, error) {
	var files []schema.File
	err := s.db.WithContext(ctx).
		Where("dir_multihash = ?", dirMultihash).
		Order("file_name ASC").
		Find(&files).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get dir entries: %w", err)
	}
	return files, nil
}

// GetLatestAudiusUser retrieves the user's newest metadata revision
func (s *pgStore) GetLatestAudiusUser(ctx context.Context, cnodeUserUUID uuid.UUID) (*schema.AudiusUser, error) {
	var row schema.AudiusUser
	err := s.db.WithContext(ctx).
		Where("cnode_user_uuid = ?", cnodeUserUUID).
		Order("clock DESC").
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest user metadata revision: %w", err)
	}
	return &row, nil
}

// getOrCreateUser returns the user row for a wallet, creating it on first
// write. Safe under concurrent first writes: the insert is ON CONFLICT DO
// NOTHING and the row is re-read afterwards.
func getOrCreateUser(tx *gorm.DB, wallet string) (*schema.CNodeUser, error) {
	user := schema.CNodeUser{
		CNodeUserUUID:   uuid.New(),
		WalletPublicKey: wallet,
	}
	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "wallet_public_key"}},
		DoNothing: true,
	}).Create(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	var existing schema.CNodeUser
	if err := tx.Where("wallet_public_key = ?", wallet).First(&existing).Error; err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &existing, nil
}

// nextClock advances the user's clock inside the caller's transaction: it
// locks the user row, appends a clock record with clock+1 and moves the
// user clock forward. The composite primary key on clock_records is the
// final arbiter when two transactions race for the same value.
func nextClock(tx *gorm.DB, userUUID uuid.UUID, kind schema.SourceKind) (int64, error) {
	var user schema.CNodeUser
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("cnode_user_uuid = ?", userUUID).
		First(&user).Error; err != nil {
		return 0, fmt.Errorf("failed to lock user row: %w", err)
	}

	next := user.Clock + 1
	record := schema.ClockRecord{
		CNodeUserUUID: userUUID,
		Clock:         next,
		SourceKind:    kind,
	}
	if err := tx.Create(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return 0, fmt.Errorf("%w: clock %d for user %s", domain.ErrClockConflict, next, userUUID)
		}
		return 0, fmt.Errorf("failed to append clock record: %w", err)
	}

	if err := tx.Model(&schema.CNodeUser{}).
		Where("cnode_user_uuid = ?", userUUID).
		Update("clock", next).Error; err != nil {
		return 0, fmt.Errorf("failed to advance user clock: %w", err)
	}

	return next, nil
}

// advanceBlockNumber moves latest_block_number forward, never backward
func advanceBlockNumber(tx *gorm.DB, userUUID uuid.UUID, blockNumber int64) error {
	err := tx.Model(&schema.CNodeUser{}).
		Where("cnode_user_uuid = ?", userUUID).
		Update("latest_block_number", gorm.Expr("GREATEST(latest_block_number, ?)", blockNumber)).Error
	if err != nil {
		return fmt.Errorf("failed to advance block number: %w", err)
	}
	return nil
}

// CreateMetadataFile commits a metadata blob reference under the user's
// next clock value
func (s *pgStore) CreateMetadataFile(ctx context.Context, input CreateMetadataFileInput) (*schema.File, error) {
	var file *schema.File
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := getOrCreateUser(tx, input.WalletPublicKey)
		if err != nil {
			return err
		}

		clk, err := nextClock(tx, user.CNodeUserUUID, schema.SourceKindFile)
		if err != nil {
			return err
		}

		f := schema.File{
			FileUUID:      uuid.New(),
			CNodeUserUUID: user.CNodeUserUUID,
			Clock:         clk,
			Multihash:     input.Multihash,
			SourceFile:    input.SourceFile,
			StoragePath:   input.StoragePath,
			Type:          schema.FileTypeMetadata,
		}
		if err := tx.Create(&f).Error; err != nil {
			return fmt.Errorf("failed to create metadata file record: %w", err)
		}

		file = &f
		return nil
	})
	return file, err
}

// CreateAudiusUser commits a user metadata revision under the user's next
// clock value
func (s *pgStore) CreateAudiusUser(ctx context.Context, input CreateAudiusUserInput) (*schema.AudiusUser, error) {
	var row *schema.AudiusUser
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := getOrCreateUser(tx, input.WalletPublicKey)
		if err != nil {
			return err
		}

		clk, err := nextClock(tx, user.CNodeUserUUID, schema.SourceKindUserMeta)
		if err != nil {
			return err
		}

		r := schema.AudiusUser{
			AudiusUserUUID:     uuid.New(),
			CNodeUserUUID:      user.CNodeUserUUID,
			Clock:              clk,
			BlockchainID:       input.BlockchainID,
			BlockNumber:        &input.BlockNumber,
			MetadataFileUUID:   input.MetadataFileUUID,
			MetadataJSON:       input.MetadataJSON,
			CoverArtFileUUID:   input.CoverArtFileUUID,
			ProfilePicFileUUID: input.ProfilePicFileUUID,
		}
		if err := tx.Create(&r).Error; err != nil {
			return fmt.Errorf("failed to create user metadata revision: %w", err)
		}

		if err := advanceBlockNumber(tx, user.CNodeUserUUID, input.BlockNumber); err != nil {
			return err
		}

		row = &r
		return nil
	})
	return row, err
}

// CreateTrack commits a track metadata revision under the user's next
// clock value
func (s *pgStore) CreateTrack(ctx context.Context, input CreateTrackInput) (*schema.Track, error) {
	var row *schema.Track
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := getOrCreateUser(tx, input.WalletPublicKey)
		if err != nil {
			return err
		}

		clk, err := nextClock(tx, user.CNodeUserUUID, schema.SourceKindTrack)
		if err != nil {
			return err
		}

		r := schema.Track{
			TrackUUID:        uuid.New(),
			CNodeUserUUID:    user.CNodeUserUUID,
			Clock:            clk,
			BlockchainID:     input.BlockchainID,
			BlockNumber:      &input.BlockNumber,
			MetadataFileUUID: input.MetadataFileUUID,
			MetadataJSON:     input.MetadataJSON,
			CoverArtFileUUID: input.CoverArtFileUUID,
		}
		if err := tx.Create(&r).Error; err != nil {
			return fmt.Errorf("failed to create track revision: %w", err)
		}

		if err := advanceBlockNumber(tx, user.CNodeUserUUID, input.BlockNumber); err != nil {
			return err
		}

		row = &r
		return nil
	})
	return row, err
}

// CreateTrackContent commits an audio blob reference under the user's next
// clock value
func (s *pgStore) CreateTrackContent(ctx context.Context, input CreateTrackContentInput) (*schema.File, error) {
	var file *schema.File
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := getOrCreateUser(tx, input.WalletPublicKey)
		if err != nil {
			return err
		}

		clk, err := nextClock(tx, user.CNodeUserUUID, schema.SourceKindFile)
		if err != nil {
			return err
		}

		f := schema.File{
			FileUUID:          uuid.New(),
			CNodeUserUUID:     user.CNodeUserUUID,
			Clock:             clk,
			Multihash:         input.Multihash,
			SourceFile:        input.SourceFile,
			StoragePath:       input.StoragePath,
			Type:              schema.FileTypeAudio,
			TrackBlockchainID: input.TrackBlockchainID,
		}
		if err := tx.Create(&f).Error; err != nil {
			return fmt.Errorf("failed to create track content record: %w", err)
		}

		file = &f
		return nil
	})
	return file, err
}

// CreateImageDirectory commits a directory row plus one row per entry,
// consuming consecutive clock values
func (s *pgStore) CreateImageDirectory(ctx context.Context, input CreateImageDirectoryInput) (*ImageDirectoryResult, error) {
	// Deterministic listing order keeps clock assignment stable across
	// retries and peers.
	entries := make([]ImageDirEntry, len(input.Entries))
	copy(entries, input.Entries)
	sort.Slice(entries, func(i, j int) bool { return entries[i].FileName < entries[j].FileName })

	var result *ImageDirectoryResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := getOrCreateUser(tx, input.WalletPublicKey)
		if err != nil {
			return err
		}

		clk, err := nextClock(tx, user.CNodeUserUUID, schema.SourceKindFile)
		if err != nil {
			return err
		}

		dir := schema.File{
			FileUUID:      uuid.New(),
			CNodeUserUUID: user.CNodeUserUUID,
			Clock:         clk,
			Multihash:     input.DirMultihash,
			SourceFile:    input.SourceFile,
			StoragePath:   input.DirStoragePath,
			Type:          schema.FileTypeDir,
		}
		if err := tx.Create(&dir).Error; err != nil {
			return fmt.Errorf("failed to create dir record: %w", err)
		}

		committed := make([]schema.File, 0, len(entries))
		for _, entry := range entries {
			clk, err := nextClock(tx, user.CNodeUserUUID, schema.SourceKindFile)
			if err != nil {
				return err
			}

			fileName := entry.FileName
			f := schema.File{
				FileUUID:      uuid.New(),
				CNodeUserUUID: user.CNodeUserUUID,
				Clock:         clk,
				Multihash:     entry.Multihash,
				FileName:      &fileName,
				DirMultihash:  &dir.Multihash,
				StoragePath:   entry.StoragePath,
				Type:          schema.FileTypeImage,
			}
			if err := tx.Create(&f).Error; err != nil {
				return fmt.Errorf("failed to create dir entry record: %w", err)
			}
			committed = append(committed, f)
		}

		result = &ImageDirectoryResult{Dir: &dir, Entries: committed}
		return nil
	})
	return result, err
}

// FetchExportUsers reads an export window for the given wallets in one
// repeatable-read snapshot
func (s *pgStore) FetchExportUsers(ctx context.Context, wallets []string, rangeMin, rangeMax int64) ([]*ExportUserData, error) {
	if len(wallets) == 0 {
		return []*ExportUserData{}, nil
	}

	out := make([]*ExportUserData, 0, len(wallets))
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var users []schema.CNodeUser
		if err := tx.Where("wallet_public_key IN ?", wallets).
			Order("wallet_public_key ASC").
			Find(&users).Error; err != nil {
			return fmt.Errorf("failed to get users: %w", err)
		}

		for i := range users {
			user := users[i]
			data := &ExportUserData{
				User:          &user,
				LocalClockMax: user.Clock,
			}

			if err := tx.Where("cnode_user_uuid = ? AND clock >= ? AND clock <= ?",
				user.CNodeUserUUID, rangeMin, rangeMax).
				Order("clock ASC").
				Find(&data.ClockRecords).Error; err != nil {
				return fmt.Errorf("failed to get clock records: %w", err)
			}

			if err := tx.Where("cnode_user_uuid = ? AND clock >= ? AND clock <= ?",
				user.CNodeUserUUID, rangeMin, rangeMax).
				Order("clock ASC").
				Find(&data.AudiusUsers).Error; err != nil {
				return fmt.Errorf("failed to get user metadata revisions: %w", err)
			}

			if err := tx.Where("cnode_user_uuid = ? AND clock >= ? AND clock <= ?",
				user.CNodeUserUUID, rangeMin, rangeMax).
				Order("clock ASC").
				Find(&data.Tracks).Error; err != nil {
				return fmt.Errorf("failed to get tracks: %w", err)
			}

			if err := tx.Where("cnode_user_uuid = ? AND clock >= ? AND clock <= ?",
				user.CNodeUserUUID, rangeMin, rangeMax).
				Order("clock ASC").
				Find(&data.Files).Error; err != nil {
				return fmt.Errorf("failed to get files: %w", err)
			}

			out = append(out, data)
		}

		return nil
	}, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, err
	}

	return out, nil
}

// ApplyImport commits a validated sync window in a single transaction.
// Insert order satisfies row references: user, clock records, non-track
// files, tracks, track files, user metadata revisions.
func (s *pgStore) ApplyImport(ctx context.Context, bundle ImportBundle) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user schema.CNodeUser
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("wallet_public_key = ?", bundle.WalletPublicKey).
			First(&user).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			if bundle.ExpectedLocalClock >= 0 {
				return fmt.Errorf("%w: user vanished during sync", domain.ErrClockConflict)
			}
			userUUID := bundle.SourceUserUUID
			if userUUID == uuid.Nil {
				userUUID = uuid.New()
			}
			user = schema.CNodeUser{
				CNodeUserUUID:   userUUID,
				WalletPublicKey: bundle.WalletPublicKey,
			}
			if err := tx.Create(&user).Error; err != nil {
				return fmt.Errorf("failed to create user: %w", err)
			}
		case err != nil:
			return fmt.Errorf("failed to lock user: %w", err)
		default:
			// The window was validated against ExpectedLocalClock; it
			// must not apply over state that moved underneath it.
			if user.Clock != bundle.ExpectedLocalClock {
				return fmt.Errorf("%w: local clock moved from %d to %d during sync",
					domain.ErrClockConflict, bundle.ExpectedLocalClock, user.Clock)
			}
		}

		// Adopt the local user identity on every incoming row.
		for i := range bundle.ClockRecords {
			bundle.ClockRecords[i].CNodeUserUUID = user.CNodeUserUUID
		}
		for i := range bundle.AudiusUsers {
			bundle.AudiusUsers[i].CNodeUserUUID = user.CNodeUserUUID
			if bundle.AudiusUsers[i].AudiusUserUUID == uuid.Nil {
				bundle.AudiusUsers[i].AudiusUserUUID = uuid.New()
			}
		}
		for i := range bundle.Tracks {
			bundle.Tracks[i].CNodeUserUUID = user.CNodeUserUUID
			if bundle.Tracks[i].TrackUUID == uuid.Nil {
				bundle.Tracks[i].TrackUUID = uuid.New()
			}
		}
		for i := range bundle.Files {
			bundle.Files[i].CNodeUserUUID = user.CNodeUserUUID
			if bundle.Files[i].FileUUID == uuid.Nil {
				bundle.Files[i].FileUUID = uuid.New()
			}
		}

		var trackFiles, nonTrackFiles []schema.File
		for _, f := range bundle.Files {
			if f.IsTrackFile() {
				trackFiles = append(trackFiles, f)
			} else {
				nonTrackFiles = append(nonTrackFiles, f)
			}
		}

		userClockConflict := clause.OnConflict{
			Columns:   []clause.Column{{Name: "cnode_user_uuid"}, {Name: "clock"}},
			DoNothing: true,
		}

		if len(bundle.ClockRecords) > 0 {
			if err := tx.Clauses(userClockConflict).
				CreateInBatches(bundle.ClockRecords, calculateSafeBatchSize(len(bundle.ClockRecords), 4)).Error; err != nil {
				return fmt.Errorf("failed to import clock records: %w", err)
			}
		}
		if len(nonTrackFiles) > 0 {
			if err := tx.Clauses(userClockConflict).
				CreateInBatches(nonTrackFiles, calculateSafeBatchSize(len(nonTrackFiles), 11)).Error; err != nil {
				return fmt.Errorf("failed to import files: %w", err)
			}
		}
		if len(bundle.Tracks) > 0 {
			if err := tx.Clauses(userClockConflict).
				CreateInBatches(bundle.Tracks, calculateSafeBatchSize(len(bundle.Tracks), 9)).Error; err != nil {
				return fmt.Errorf("failed to import tracks: %w", err)
			}
		}
		if len(trackFiles) > 0 {
			if err := tx.Clauses(userClockConflict).
				CreateInBatches(trackFiles, calculateSafeBatchSize(len(trackFiles), 11)).Error; err != nil {
				return fmt.Errorf("failed to import track files: %w", err)
			}
		}
		if len(bundle.AudiusUsers) > 0 {
			if err := tx.Clauses(userClockConflict).
				CreateInBatches(bundle.AudiusUsers, calculateSafeBatchSize(len(bundle.AudiusUsers), 10)).Error; err != nil {
				return fmt.Errorf("failed to import user metadata revisions: %w", err)
			}
		}

		if err := tx.Model(&schema.CNodeUser{}).
			Where("cnode_user_uuid = ?", user.CNodeUserUUID).
			Updates(map[string]interface{}{
				"clock":               bundle.Clock,
				"latest_block_number": gorm.Expr("GREATEST(latest_block_number, ?)", bundle.LatestBlockNumber),
			}).Error; err != nil {
			return fmt.Errorf("failed to advance user state: %w", err)
		}

		return nil
	})
}
