package types

import (
	ssz "github.com/ferranbt/fastssz"
	"github.com/prysmaticlabs/go-bitfield"
)

// Hand-written SSZ codecs for the wire and storage encodings. Containers
// marshal their fixed parts first, then variable parts behind 4-byte offsets.

const (
	attestationDataSize  = 128
	attestationFixedSize = 4 + attestationDataSize + 96
	blockBodyFixedSize   = 96 + 32 + 4
	blockFixedSize       = 8 + 32 + 32 + 4 + 96
	validatorSize        = 73
	forkSize             = 16
	checkpointSize       = 40
	stateFixedSize       = 8 + 8 + forkSize + 2*checkpointSize + 5*4
)

// -- Checkpoint --

// SizeSSZ returns the ssz-encoded size of the checkpoint.
func (c *Checkpoint) SizeSSZ() int { return checkpointSize }

// MarshalSSZTo appends the ssz-encoded checkpoint to dst.
func (c *Checkpoint) MarshalSSZTo(dst []byte) ([]byte, error) {
	dst = ssz.MarshalUint64(dst, c.Epoch)
	dst = append(dst, c.Root[:]...)
	return dst, nil
}

// MarshalSSZ ssz-encodes the checkpoint.
func (c *Checkpoint) MarshalSSZ() ([]byte, error) {
	return c.MarshalSSZTo(make([]byte, 0, c.SizeSSZ()))
}

// UnmarshalSSZ decodes the checkpoint from ssz form.
func (c *Checkpoint) UnmarshalSSZ(buf []byte) error {
	if len(buf) != checkpointSize {
		return ssz.ErrSize
	}
	c.Epoch = ssz.UnmarshallUint64(buf[0:8])
	copy(c.Root[:], buf[8:40])
	return nil
}

// -- Fork --

// SizeSSZ returns the ssz-encoded size of the fork.
func (f *Fork) SizeSSZ() int { return forkSize }

// MarshalSSZTo appends the ssz-encoded fork to dst.
func (f *Fork) MarshalSSZTo(dst []byte) ([]byte, error) {
	dst = append(dst, f.PreviousVersion[:]...)
	dst = append(dst, f.CurrentVersion[:]...)
	dst = ssz.MarshalUint64(dst, f.Epoch)
	return dst, nil
}

// MarshalSSZ ssz-encodes the fork.
func (f *Fork) MarshalSSZ() ([]byte, error) {
	return f.MarshalSSZTo(make([]byte, 0, f.SizeSSZ()))
}

// UnmarshalSSZ decodes the fork from ssz form.
func (f *Fork) UnmarshalSSZ(buf []byte) error {
	if len(buf) != forkSize {
		return ssz.ErrSize
	}
	copy(f.PreviousVersion[:], buf[0:4])
	copy(f.CurrentVersion[:], buf[4:8])
	f.Epoch = ssz.UnmarshallUint64(buf[8:16])
	return nil
}

// -- Validator --

// SizeSSZ returns the ssz-encoded size of a validator.
func (v *Validator) SizeSSZ() int { return validatorSize }

// MarshalSSZTo appends the ssz-encoded validator to dst.
func (v *Validator) MarshalSSZTo(dst []byte) ([]byte, error) {
	dst = append(dst, v.PublicKey[:]...)
	dst = ssz.MarshalUint64(dst, v.EffectiveBalance)
	if v.Slashed {
		dst = append(dst, 1)
	} else {
		dst = append(dst, 0)
	}
	dst = ssz.MarshalUint64(dst, v.ActivationEpoch)
	dst = ssz.MarshalUint64(dst, v.ExitEpoch)
	return dst, nil
}

// MarshalSSZ ssz-encodes the validator.
func (v *Validator) MarshalSSZ() ([]byte, error) {
	return v.MarshalSSZTo(make([]byte, 0, v.SizeSSZ()))
}

// UnmarshalSSZ decodes the validator from ssz form.
func (v *Validator) UnmarshalSSZ(buf []byte) error {
	if len(buf) != validatorSize {
		return ssz.ErrSize
	}
	copy(v.PublicKey[:], buf[0:48])
	v.EffectiveBalance = ssz.UnmarshallUint64(buf[48:56])
	v.Slashed = buf[56] == 1
	v.ActivationEpoch = ssz.UnmarshallUint64(buf[57:65])
	v.ExitEpoch = ssz.UnmarshallUint64(buf[65:73])
	return nil
}

// -- AttestationData --

// SizeSSZ returns the ssz-encoded size of the attestation data.
func (a *AttestationData) SizeSSZ() int { return attestationDataSize }

// MarshalSSZTo appends the ssz-encoded attestation data to dst.
func (a *AttestationData) MarshalSSZTo(dst []byte) ([]byte, error) {
	var err error
	dst = ssz.MarshalUint64(dst, a.Slot)
	dst = ssz.MarshalUint64(dst, a.CommitteeIndex)
	dst = append(dst, a.BeaconBlockRoot[:]...)
	if dst, err = a.Source.MarshalSSZTo(dst); err != nil {
		return nil, err
	}
	if dst, err = a.Target.MarshalSSZTo(dst); err != nil {
		return nil, err
	}
	return dst, nil
}

// MarshalSSZ ssz-encodes the attestation data.
func (a *AttestationData) MarshalSSZ() ([]byte, error) {
	return a.MarshalSSZTo(make([]byte, 0, a.SizeSSZ()))
}

// UnmarshalSSZ decodes the attestation data from ssz form.
func (a *AttestationData) UnmarshalSSZ(buf []byte) error {
	if len(buf) != attestationDataSize {
		return ssz.ErrSize
	}
	a.Slot = ssz.UnmarshallUint64(buf[0:8])
	a.CommitteeIndex = ssz.UnmarshallUint64(buf[8:16])
	copy(a.BeaconBlockRoot[:], buf[16:48])
	if err := a.Source.UnmarshalSSZ(buf[48:88]); err != nil {
		return err
	}
	return a.Target.UnmarshalSSZ(buf[88:128])
}

// -- Attestation --

// SizeSSZ returns the ssz-encoded size of the attestation.
func (a *Attestation) SizeSSZ() int {
	return attestationFixedSize + len(a.AggregationBits)
}

// MarshalSSZTo appends the ssz-encoded attestation to dst.
func (a *Attestation) MarshalSSZTo(dst []byte) ([]byte, error) {
	var err error
	dst = ssz.WriteOffset(dst, attestationFixedSize)
	data := a.Data
	if data == nil {
		data = &AttestationData{}
	}
	if dst, err = data.MarshalSSZTo(dst); err != nil {
		return nil, err
	}
	dst = append(dst, a.Signature[:]...)
	dst = append(dst, a.AggregationBits...)
	return dst, nil
}

// MarshalSSZ ssz-encodes the attestation.
func (a *Attestation) MarshalSSZ() ([]byte, error) {
	return a.MarshalSSZTo(make([]byte, 0, a.SizeSSZ()))
}

// UnmarshalSSZ decodes the attestation from ssz form.
func (a *Attestation) UnmarshalSSZ(buf []byte) error {
	if len(buf) < attestationFixedSize {
		return ssz.ErrSize
	}
	bitsOffset := ssz.ReadOffset(buf[0:4])
	if bitsOffset != attestationFixedSize || bitsOffset > uint64(len(buf)) {
		return ssz.ErrOffset
	}
	a.Data = &AttestationData{}
	if err := a.Data.UnmarshalSSZ(buf[4 : 4+attestationDataSize]); err != nil {
		return err
	}
	copy(a.Signature[:], buf[4+attestationDataSize:attestationFixedSize])
	a.AggregationBits = bitfield.Bitlist(append([]byte{}, buf[bitsOffset:]...))
	return nil
}

// -- BeaconBlockBody --

// SizeSSZ returns the ssz-encoded size of the block body.
func (b *BeaconBlockBody) SizeSSZ() int {
	size := blockBodyFixedSize
	for _, att := range b.Attestations {
		size += 4 + att.SizeSSZ()
	}
	return size
}

// MarshalSSZTo appends the ssz-encoded block body to dst.
func (b *BeaconBlockBody) MarshalSSZTo(dst []byte) ([]byte, error) {
	var err error
	dst = append(dst, b.RandaoReveal[:]...)
	dst = append(dst, b.Graffiti[:]...)
	dst = ssz.WriteOffset(dst, blockBodyFixedSize)

	offset := len(b.Attestations) * 4
	for _, att := range b.Attestations {
		dst = ssz.WriteOffset(dst, offset)
		offset += att.SizeSSZ()
	}
	for _, att := range b.Attestations {
		if dst, err = att.MarshalSSZTo(dst); err != nil {
			return nil, err
		}
	}
	return dst, nil
}

// MarshalSSZ ssz-encodes the block body.
func (b *BeaconBlockBody) MarshalSSZ() ([]byte, error) {
	return b.MarshalSSZTo(make([]byte, 0, b.SizeSSZ()))
}

// UnmarshalSSZ decodes the block body from ssz form.
func (b *BeaconBlockBody) UnmarshalSSZ(buf []byte) error {
	if len(buf) < blockBodyFixedSize {
		return ssz.ErrSize
	}
	copy(b.RandaoReveal[:], buf[0:96])
	copy(b.Graffiti[:], buf[96:128])
	attsOffset := ssz.ReadOffset(buf[128:132])
	if attsOffset != blockBodyFixedSize || attsOffset > uint64(len(buf)) {
		return ssz.ErrOffset
	}
	var err error
	b.Attestations, err = unmarshalAttestationList(buf[attsOffset:])
	return err
}

func unmarshalAttestationList(buf []byte) ([]*Attestation, error) {
	if len(buf) == 0 {
		return nil, nil
	}
	if len(buf) < 4 {
		return nil, ssz.ErrSize
	}
	firstOffset := ssz.ReadOffset(buf[0:4])
	if firstOffset%4 != 0 || firstOffset > uint64(len(buf)) {
		return nil, ssz.ErrOffset
	}
	count := int(firstOffset / 4)
	offsets := make([]uint64, count+1)
	for i := 0; i < count; i++ {
		offsets[i] = ssz.ReadOffset(buf[i*4 : i*4+4])
	}
	offsets[count] = uint64(len(buf))
	atts := make([]*Attestation, count)
	for i := 0; i < count; i++ {
		if offsets[i] > offsets[i+1] || offsets[i+1] > uint64(len(buf)) {
			return nil, ssz.ErrOffset
		}
		atts[i] = &Attestation{}
		if err := atts[i].UnmarshalSSZ(buf[offsets[i]:offsets[i+1]]); err != nil {
			return nil, err
		}
	}
	return atts, nil
}

// -- BeaconBlock --

// SizeSSZ returns the ssz-encoded size of the block.
func (b *BeaconBlock) SizeSSZ() int {
	body := b.Body
	if body == nil {
		body = &BeaconBlockBody{}
	}
	return blockFixedSize + body.SizeSSZ()
}

// MarshalSSZTo appends the ssz-encoded block to dst.
func (b *BeaconBlock) MarshalSSZTo(dst []byte) ([]byte, error) {
	var err error
	dst = ssz.MarshalUint64(dst, b.Slot)
	dst = append(dst, b.ParentRoot[:]...)
	dst = append(dst, b.StateRoot[:]...)
	dst = ssz.WriteOffset(dst, blockFixedSize)
	dst = append(dst, b.Signature[:]...)
	body := b.Body
	if body == nil {
		body = &BeaconBlockBody{}
	}
	if dst, err = body.MarshalSSZTo(dst); err != nil {
		return nil, err
	}
	return dst, nil
}

// MarshalSSZ ssz-encodes the block.
func (b *BeaconBlock) MarshalSSZ() ([]byte, error) {
	return b.MarshalSSZTo(make([]byte, 0, b.SizeSSZ()))
}

// UnmarshalSSZ decodes the block from ssz form.
func (b *BeaconBlock) UnmarshalSSZ(buf []byte) error {
	if len(buf) < blockFixedSize {
		return ssz.ErrSize
	}
	b.Slot = ssz.UnmarshallUint64(buf[0:8])
	copy(b.ParentRoot[:], buf[8:40])
	copy(b.StateRoot[:], buf[40:72])
	bodyOffset := ssz.ReadOffset(buf[72:76])
	if bodyOffset != blockFixedSize || bodyOffset > uint64(len(buf)) {
		return ssz.ErrOffset
	}
	copy(b.Signature[:], buf[76:172])
	b.Body = &BeaconBlockBody{}
	return b.Body.UnmarshalSSZ(buf[bodyOffset:])
}

// -- BeaconState --

// SizeSSZ returns the ssz-encoded size of the state.
func (b *BeaconState) SizeSSZ() int {
	return stateFixedSize +
		len(b.BlockRoots)*32 +
		len(b.StateRoots)*32 +
		len(b.RandaoMixes)*32 +
		len(b.Validators)*validatorSize +
		len(b.Balances)*8
}

// MarshalSSZTo appends the ssz-encoded state to dst.
func (b *BeaconState) MarshalSSZTo(dst []byte) ([]byte, error) {
	var err error
	dst = ssz.MarshalUint64(dst, b.GenesisTime)
	dst = ssz.MarshalUint64(dst, b.Slot)
	fork := b.Fork
	if fork == nil {
		fork = &Fork{}
	}
	if dst, err = fork.MarshalSSZTo(dst); err != nil {
		return nil, err
	}
	cjc := b.CurrentJustifiedCheckpoint
	if cjc == nil {
		cjc = &Checkpoint{}
	}
	if dst, err = cjc.MarshalSSZTo(dst); err != nil {
		return nil, err
	}
	fc := b.FinalizedCheckpoint
	if fc == nil {
		fc = &Checkpoint{}
	}
	if dst, err = fc.MarshalSSZTo(dst); err != nil {
		return nil, err
	}

	offset := stateFixedSize
	dst = ssz.WriteOffset(dst, offset)
	offset += len(b.BlockRoots) * 32
	dst = ssz.WriteOffset(dst, offset)
	offset += len(b.StateRoots) * 32
	dst = ssz.WriteOffset(dst, offset)
	offset += len(b.RandaoMixes) * 32
	dst = ssz.WriteOffset(dst, offset)
	offset += len(b.Validators) * validatorSize
	dst = ssz.WriteOffset(dst, offset)

	for _, root := range b.BlockRoots {
		dst = append(dst, root[:]...)
	}
	for _, root := range b.StateRoots {
		dst = append(dst, root[:]...)
	}
	for _, mix := range b.RandaoMixes {
		dst = append(dst, mix[:]...)
	}
	for _, val := range b.Validators {
		if dst, err = val.MarshalSSZTo(dst); err != nil {
			return nil, err
		}
	}
	for _, balance := range b.Balances {
		dst = ssz.MarshalUint64(dst, balance)
	}
	return dst, nil
}

// MarshalSSZ ssz-encodes the state.
func (b *BeaconState) MarshalSSZ() ([]byte, error) {
	return b.MarshalSSZTo(make([]byte, 0, b.SizeSSZ()))
}

// UnmarshalSSZ decodes the state from ssz form.
func (b *BeaconState) UnmarshalSSZ(buf []byte) error {
	if len(buf) < stateFixedSize {
		return ssz.ErrSize
	}
	b.GenesisTime = ssz.UnmarshallUint64(buf[0:8])
	b.Slot = ssz.UnmarshallUint64(buf[8:16])
	b.Fork = &Fork{}
	if err := b.Fork.UnmarshalSSZ(buf[16:32]); err != nil {
		return err
	}
	b.CurrentJustifiedCheckpoint = &Checkpoint{}
	if err := b.CurrentJustifiedCheckpoint.UnmarshalSSZ(buf[32:72]); err != nil {
		return err
	}
	b.FinalizedCheckpoint = &Checkpoint{}
	if err := b.FinalizedCheckpoint.UnmarshalSSZ(buf[72:112]); err != nil {
		return err
	}

	offsets := make([]uint64, 6)
	for i := 0; i < 5; i++ {
		offsets[i] = ssz.ReadOffset(buf[112+i*4 : 116+i*4])
	}
	offsets[5] = uint64(len(buf))
	if offsets[0] != stateFixedSize {
		return ssz.ErrOffset
	}
	for i := 0; i < 5; i++ {
		if offsets[i] > offsets[i+1] || offsets[i+1] > uint64(len(buf)) {
			return ssz.ErrOffset
		}
	}

	rootsAt := func(section []byte) ([][32]byte, error) {
		if len(section)%32 != 0 {
			return nil, ssz.ErrSize
		}
		if len(section) == 0 {
			return nil, nil
		}
		roots := make([][32]byte, len(section)/32)
		for i := range roots {
			copy(roots[i][:], section[i*32:(i+1)*32])
		}
		return roots, nil
	}

	var err error
	if b.BlockRoots, err = rootsAt(buf[offsets[0]:offsets[1]]); err != nil {
		return err
	}
	if b.StateRoots, err = rootsAt(buf[offsets[1]:offsets[2]]); err != nil {
		return err
	}
	if b.RandaoMixes, err = rootsAt(buf[offsets[2]:offsets[3]]); err != nil {
		return err
	}

	valBytes := buf[offsets[3]:offsets[4]]
	if len(valBytes)%validatorSize != 0 {
		return ssz.ErrSize
	}
	b.Validators = nil
	if len(valBytes) > 0 {
		b.Validators = make([]*Validator, len(valBytes)/validatorSize)
	}
	for i := range b.Validators {
		b.Validators[i] = &Validator{}
		if err := b.Validators[i].UnmarshalSSZ(valBytes[i*validatorSize : (i+1)*validatorSize]); err != nil {
			return err
		}
	}

	balanceBytes := buf[offsets[4]:offsets[5]]
	if len(balanceBytes)%8 != 0 {
		return ssz.ErrSize
	}
	b.Balances = nil
	if len(balanceBytes) > 0 {
		b.Balances = make([]uint64, len(balanceBytes)/8)
	}
	for i := range b.Balances {
		b.Balances[i] = ssz.UnmarshallUint64(balanceBytes[i*8 : (i+1)*8])
	}
	return nil
}
