package invest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplitTableValidate(t *testing.T) {
	require.NoError(t, DefaultAppConfig.Split.Validate())
	require.ErrorIs(t, SplitTable{SelfPercent: 70, LvlOnePercent: 18, LvlTwoPercent: 7, LvlThreePercent: 3}.Validate(), ErrBadSplitTable)
	require.NoError(t, SplitTable{SelfPercent: 100}.Validate())
}

func TestSplitTableLevelPercent(t *testing.T) {
	split := DefaultAppConfig.Split
	require.Equal(t, 18.0, split.LevelPercent(1))
	require.Equal(t, 7.0, split.LevelPercent(2))
	require.Equal(t, 3.0, split.LevelPercent(3))
	require.Equal(t, 0.0, split.LevelPercent(4))
}

func TestLoadConfigMissingRow(t *testing.T) {
	db := newTestDb(t)
	_, err := LoadConfig(context.Background(), nil, db)
	require.ErrorIs(t, err, ErrMissingConfig)
}

func TestSaveAndLoadConfig(t *testing.T) {
	db := newTestDb(t)
	config := DefaultAppConfig
	config.TransferFee = 2.5
	require.NoError(t, SaveConfig(context.Background(), nil, db, config))

	loaded, err := LoadConfig(context.Background(), nil, db)
	require.NoError(t, err)
	require.Equal(t, 2.5, loaded.TransferFee)
	require.Equal(t, config.Split, loaded.Split)
}

func TestSaveConfigRejectsBadSplit(t *testing.T) {
	db := newTestDb(t)
	config := DefaultAppConfig
	config.Split.SelfPercent = 50
	require.ErrorIs(t, SaveConfig(context.Background(), nil, db, config), ErrBadSplitTable)
}
