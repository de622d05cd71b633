package profile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/creativeprojects/webmail/lib"
	bolt "go.etcd.io/bbolt"
)

const (
	metadataBucket  = "metadata"
	profileBucket   = "profile"
	avatarBucket    = "avatar"
	versionKey      = "version"
	boltFileVersion = 1
)

// Profile of a user. It is only used to enrich the profile view, the mailbox never reads it.
type Profile struct {
	DisplayName     string `json:"displayName"`
	Avatar          string `json:"avatar,omitempty"`
	Signature       string `json:"signature"`
	RecoveryAddress string `json:"recoveryAddress"`
}

// BoltStore keeps the profiles in a bbolt file, keyed by address
type BoltStore struct {
	dbFile string
	db     *bolt.DB
	log    lib.Logger
}

func NewBoltStore(filename string) (*BoltStore, error) {
	return NewBoltStoreWithLogger(filename, nil)
}

func NewBoltStoreWithLogger(filename string, logger lib.Logger) (*BoltStore, error) {
	if logger == nil {
		logger = &lib.NoLog{}
	}
	options := bolt.DefaultOptions
	options.Timeout = 10 * time.Second

	err := os.MkdirAll(filepath.Dir(filename), 0700)
	if err != nil {
		return nil, fmt.Errorf("cannot open %q: %w", filename, err)
	}

	db, err := bolt.Open(filename, 0600, options)
	if err != nil {
		return nil, err
	}

	store := &BoltStore{
		dbFile: filename,
		db:     db,
		log:    logger,
	}
	if err := store.init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *BoltStore) init() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists([]byte(metadataBucket))
		if err != nil {
			return err
		}
		if existing := bucket.Get([]byte(versionKey)); existing != nil {
			version, err := DeserializeInt(existing)
			if err != nil {
				return fmt.Errorf("invalid profile file version: %w", err)
			}
			if version > boltFileVersion {
				return fmt.Errorf("profile file version %d is not supported", version)
			}
		}
		version, err := SerializeInt(boltFileVersion)
		if err != nil {
			return err
		}
		if err := bucket.Put([]byte(versionKey), version); err != nil {
			return err
		}
		for _, name := range []string{profileBucket, avatarBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

// Get returns the stored profile, nil when the address has none. The avatar is not loaded.
func (s *BoltStore) Get(address string) (*Profile, error) {
	var profile *Profile
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket([]byte(profileBucket)).Get(key(address))
		if data == nil {
			return nil
		}
		var err error
		profile, err = DeserializeObject[Profile](data)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("cannot load profile of %s: %w", address, err)
	}
	return profile, nil
}

// Put replaces the profile. A non-empty avatar replaces the stored one.
func (s *BoltStore) Put(address string, profile Profile) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		if profile.Avatar != "" {
			if err := putAvatar(tx, address, profile.Avatar); err != nil {
				return err
			}
			profile.Avatar = ""
		}
		return putProfile(tx, address, &profile)
	})
	if err != nil {
		return fmt.Errorf("cannot save profile of %s: %w", address, err)
	}
	s.log.Printf("Profile of %s saved", address)
	return nil
}

// UpdateAvatar saves the avatar and, when not empty, the display name. Other fields are kept.
func (s *BoltStore) UpdateAvatar(address, avatar, displayName string) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		if avatar != "" {
			if err := putAvatar(tx, address, avatar); err != nil {
				return err
			}
		}
		if displayName == "" {
			return nil
		}
		profile := &Profile{}
		if data := tx.Bucket([]byte(profileBucket)).Get(key(address)); data != nil {
			var err error
			profile, err = DeserializeObject[Profile](data)
			if err != nil {
				return err
			}
		}
		profile.DisplayName = displayName
		return putProfile(tx, address, profile)
	})
	if err != nil {
		return fmt.Errorf("cannot save avatar of %s: %w", address, err)
	}
	return nil
}

// Avatar returns the stored avatar, an empty string when there is none
func (s *BoltStore) Avatar(address string) (string, error) {
	var avatar []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket([]byte(avatarBucket)).Get(key(address))
		if data == nil {
			return nil
		}
		var err error
		avatar, err = uncompress(data)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("cannot load avatar of %s: %w", address, err)
	}
	return string(avatar), nil
}

func putProfile(tx *bolt.Tx, address string, profile *Profile) error {
	data, err := SerializeObject(profile)
	if err != nil {
		return err
	}
	return tx.Bucket([]byte(profileBucket)).Put(key(address), data)
}

func putAvatar(tx *bolt.Tx, address, avatar string) error {
	data, err := compress([]byte(avatar))
	if err != nil {
		return err
	}
	return tx.Bucket([]byte(avatarBucket)).Put(key(address), data)
}

// addresses are case insensitive
func key(address string) []byte {
	return []byte(strings.ToLower(strings.TrimSpace(address)))
}
