package gate

import (
	"path"
	"strings"
)

// destructiveVerbs is the deny-list applied to the leading token of a
// free-form shell line. Pattern matching on text is a best-effort safeguard,
// not an isolation boundary; real containment has to come from the execution
// environment.
var destructiveVerbs = map[string]bool{
	// file removal
	"rm": true, "rmdir": true, "shred": true, "unlink": true,
	// permissions and ownership
	"chmod": true, "chown": true, "chgrp": true, "chattr": true,
	// process killing
	"kill": true, "killall": true, "pkill": true,
	// service management
	"systemctl": true, "service": true, "reboot": true, "shutdown": true,
	"halt": true, "poweroff": true, "init": true,
	// network management
	"iptables": true, "nft": true, "ip": true, "ifconfig": true, "ifdown": true,
	// mounts and disks
	"mount": true, "umount": true, "mkfs": true, "fdisk": true, "parted": true,
	"dd": true,
	// user management
	"useradd": true, "userdel": true, "usermod": true, "groupadd": true,
	"groupdel": true, "passwd": true, "visudo": true,
}

// dangerousProcessActions are the process-manager sub-actions that mutate
// service state. Listing and describing are read-only and stay unrestricted.
var dangerousProcessActions = map[string]bool{
	"restart": true,
	"reload":  true,
	"stop":    true,
	"start":   true,
}

// destructiveShellVerb returns the matching deny-listed verb of a shell line,
// or "" when the leading token is not deny-listed. Absolute paths are reduced
// to their basename so /bin/rm matches rm.
func destructiveShellVerb(line string) string {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return ""
	}
	// Skip over sudo/env prefixes: the verb that matters is the one that runs.
	i := 0
	for i < len(fields) && (fields[i] == "sudo" || fields[i] == "env") {
		i++
	}
	if i >= len(fields) {
		return ""
	}
	verb := path.Base(fields[i])
	if destructiveVerbs[verb] {
		return verb
	}
	return ""
}

// dangerousProcessAction returns the sub-action of a process-manager
// invocation when it is a mutating one, or "".
func dangerousProcessAction(args string) string {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		return ""
	}
	action := strings.ToLower(fields[0])
	if dangerousProcessActions[action] {
		return action
	}
	return ""
}
