package targets

import "github.com/minio/highwayhash"

var fingerprintKey = []byte("ABSTRAKTOR-TARGETS-FINGERPRINT!!")

// Fingerprint returns a 64-bit content hash used to key cached scan results.
func Fingerprint(content string) (uint64, error) {
	hash, err := highwayhash.New64(fingerprintKey)
	if err != nil {
		return 0, err
	}
	_, err = hash.Write([]byte(content))
	return hash.Sum64(), err
}
