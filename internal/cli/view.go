package cli

type View int

const (
	ViewMain View = iota
	ViewLogin
	ViewRegister
	ViewProfile
)

func (v View) String() string {
	switch v {
	case ViewLogin:
		return "login"
	case ViewRegister:
		return "register"
	case ViewProfile:
		return "profile"
	default:
		return "main"
	}
}

// allowed lists the explicit transitions between views. Forced logout bypasses it.
var allowed = map[View][]View{
	ViewMain:     {ViewLogin, ViewRegister, ViewProfile},
	ViewLogin:    {ViewRegister, ViewMain},
	ViewRegister: {ViewLogin, ViewMain},
	ViewProfile:  {ViewMain},
}

func canMove(from, to View) bool {
	if from == to {
		return true
	}
	for _, v := range allowed[from] {
		if v == to {
			return true
		}
	}
	return false
}
