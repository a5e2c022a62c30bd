//go:build linux

package memory

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/prometheus/procfs"
	"golang.org/x/sys/unix"
)

// Fill re-executes the current binary with FillWorkerFlag and waits for
// it. When invoked through sudo the child runs as the invoking user.
func (c ChildFiller) Fill(_ context.Context) error {
	executable, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable: %w", err)
	}

	cmd := exec.Command(executable, FillWorkerFlag)
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr
	if c.ProcRoot != "" {
		cmd.Env = append(os.Environ(), fillProcRootEnv+"="+c.ProcRoot)
	}
	cmd.SysProcAttr = &syscall.SysProcAttr{Pdeathsig: syscall.SIGTERM}
	if uid, gid, ok := invokingUser(); ok && os.Geteuid() == 0 {
		cmd.SysProcAttr.Credential = &syscall.Credential{Uid: uid, Gid: gid}
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start memory filler: %w", err)
	}
	slog.Info("filling memory", "pid", cmd.Process.Pid)
	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("memory filler: %w", err)
	}
	return nil
}

const fillProcRootEnv = "PURGE_FILL_PROC_ROOT"

// invokingUser returns the real user behind sudo or pkexec.
func invokingUser() (uint32, uint32, bool) {
	uidStr := os.Getenv("SUDO_UID")
	gidStr := os.Getenv("SUDO_GID")
	if uidStr == "" {
		uidStr = os.Getenv("PKEXEC_UID")
		gidStr = uidStr
	}
	uid, err := strconv.ParseUint(uidStr, 10, 32)
	if err != nil || uid == 0 {
		return 0, 0, false
	}
	gid, err := strconv.ParseUint(gidStr, 10, 32)
	if err != nil {
		gid = uid
	}
	return uint32(uid), uint32(gid), true
}

// RunFiller is the body of the fill child. It lowers its own priority,
// volunteers as the first OOM victim, then maps and zeroes anonymous
// memory level by level before releasing it in reverse order.
func RunFiller() error {
	procRoot := os.Getenv(fillProcRootEnv)
	if procRoot == "" {
		procRoot = procfs.DefaultMountPoint
	}

	if err := unix.Setpriority(unix.PRIO_PROCESS, 0, 19); err != nil {
		slog.Debug("setpriority", "error", err)
	}
	oomPath := filepath.Join(procRoot, "self", "oom_score_adj")
	if err := os.WriteFile(oomPath, []byte("1000"), 0); err != nil {
		slog.Debug("oom_score_adj", "error", err)
	}

	pfs, err := procfs.NewFS(procRoot)
	if err != nil {
		return err
	}

	var regions [][]byte
	defer func() {
		for i := len(regions) - 1; i >= 0; i-- {
			if err := unix.Munmap(regions[i]); err != nil {
				slog.Debug("munmap", "level", i, "error", err)
			}
		}
	}()

	levels, err := fillLevels(
		func() (uint64, error) { return physicalFree(pfs) },
		func(size int) error {
			region, err := unix.Mmap(-1, 0, size,
				unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS|unix.MAP_NORESERVE)
			if err != nil {
				return err
			}
			clear(region)
			regions = append(regions, region)
			return nil
		},
	)
	slog.Info("memory filled", "levels", levels)
	return err
}
