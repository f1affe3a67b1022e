package models

var PostTypeDisplayNames = map[PostType]string{
	PostTypeUpdate:        "Update",
	PostTypeHelpRequest:   "Need Help",
	PostTypeOfferingHelp:  "Offering Help",
	PostTypeProject:       "Project",
	PostTypeCollaboration: "Collaboration",
}

var ConnectionStatusDisplayNames = map[ConnectionStatus]string{
	ConnectionPending:  "Pending",
	ConnectionAccepted: "Connected",
	ConnectionRejected: "Declined",
}

func PostTypes() []PostType {
	return []PostType{
		PostTypeUpdate,
		PostTypeHelpRequest,
		PostTypeOfferingHelp,
		PostTypeProject,
		PostTypeCollaboration,
	}
}

func IsValidPostType(t PostType) bool {
	_, ok := PostTypeDisplayNames[t]
	return ok
}

func IsValidVisibility(v Visibility) bool {
	return v == VisibilityPublic || v == VisibilityConnections
}

func IsValidConnectionStatus(s ConnectionStatus) bool {
	_, ok := ConnectionStatusDisplayNames[s]
	return ok
}

func GetPostTypeDisplayName(t PostType) string {
	if name, ok := PostTypeDisplayNames[t]; ok {
		return name
	}
	return string(t)
}

func GetConnectionStatusDisplayName(s ConnectionStatus) string {
	if name, ok := ConnectionStatusDisplayNames[s]; ok {
		return name
	}
	return string(s)
}
